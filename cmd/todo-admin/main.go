// Command todo-admin enables or disables user accounts.
//
//	todo-admin -username alice -active=false
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	myPostgresRepo "github.com/aminkhaleghi1994/todo-app/internal/adapters/db/postgres"
	"github.com/aminkhaleghi1994/todo-app/internal/app/auth/jwt"
	"github.com/aminkhaleghi1994/todo-app/internal/app/auth/password"
	appsvc "github.com/aminkhaleghi1994/todo-app/internal/app/auth/service"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/model"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/config"
	lg "github.com/aminkhaleghi1994/todo-app/internal/infra/log"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type activator interface {
	SetActive(ctx context.Context, username string, active bool) (model.User, error)
}

type options struct {
	username string
	active   bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.username, "username", "", "account to change")
	fs.BoolVar(&o.active, "active", true, "set the account active (true) or disabled (false)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.username == "" {
		return options{}, errors.New("-username is required")
	}
	return o, nil
}

func run(ctx context.Context, svc activator, o options, out io.Writer) error {
	user, err := svc.SetActive(ctx, o.username, o.active)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "user %d (%s) active=%t\n", user.ID, user.Username, user.IsActive)
	return err
}

func main() {
	o, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		lg.Must("info").Fatal("failed to load config", zap.Error(err))
	}
	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}

	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}
	hasher, err := password.New(cfg)
	if err != nil {
		zapLog.Fatal("failed to init password hasher", zap.Error(err))
	}
	svc, err := appsvc.New(myPostgresRepo.NewPostgresUserRepo(db), nil, jwtUtil, hasher, validator.New(), zapLog)
	if err != nil {
		zapLog.Fatal("failed to init auth service", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, svc, o, os.Stdout); err != nil {
		zapLog.Fatal("set active", zap.String("username", o.username), zap.Error(err))
	}
}
