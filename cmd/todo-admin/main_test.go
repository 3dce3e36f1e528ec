package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"testing"

	authErrors "github.com/aminkhaleghi1994/todo-app/internal/domain/auth/errors"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	"github.com/stretchr/testify/require"
)

type activatorStub struct {
	username string
	active   bool
	err      error
}

func (a *activatorStub) SetActive(_ context.Context, username string, active bool) (model.User, error) {
	a.username, a.active = username, active
	if a.err != nil {
		return model.User{}, a.err
	}
	return model.User{ID: 7, Username: username, IsActive: active}, nil
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("todo-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlags(t *testing.T) {
	o, err := parseFlags(newFlagSet(), []string{"-username", "alice", "-active=false"})
	require.NoError(t, err)
	require.Equal(t, options{username: "alice", active: false}, o)

	o, err = parseFlags(newFlagSet(), []string{"-username", "bob"})
	require.NoError(t, err)
	require.True(t, o.active)

	_, err = parseFlags(newFlagSet(), nil)
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	stub := &activatorStub{}
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), stub, options{username: "alice", active: false}, &out))
	require.Equal(t, "alice", stub.username)
	require.False(t, stub.active)
	require.Equal(t, "user 7 (alice) active=false\n", out.String())
}

func TestRun_NotFound(t *testing.T) {
	stub := &activatorStub{err: authErrors.ErrNotFound}
	err := run(context.Background(), stub, options{username: "ghost"}, io.Discard)
	require.ErrorIs(t, err, authErrors.ErrNotFound)
}
