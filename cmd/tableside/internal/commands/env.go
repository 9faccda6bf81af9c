package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/spf13/pflag"

	"github.com/appetiteclub/tableside/pkg/client"
	"github.com/appetiteclub/tableside/pkg/enums/role"
)

const (
	defaultOrderURL  = "http://localhost:8081/api"
	defaultMenuURL   = "http://localhost:8082/api"
	defaultGuestURL  = "http://localhost:8083/api"
	defaultStateFile = "tableside-state.yaml"
)

// Env carries what every command needs. API and Persist are built from
// config when left nil.
type Env struct {
	Config  *apt.Config
	Logger  apt.Logger
	Out     io.Writer
	API     client.API
	Persist client.Persistence
	Now     func() time.Time
}

func NewEnv(config *apt.Config, logger apt.Logger, out io.Writer) *Env {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Env{
		Config: config,
		Logger: logger,
		Out:    out,
		Now:    time.Now,
	}
}

func (e *Env) api() client.API {
	if e.API == nil {
		e.API = client.NewHTTPAPI(client.Endpoints{
			OrderURL: e.Config.GetStringOrDef("services.order.url", defaultOrderURL),
			MenuURL:  e.Config.GetStringOrDef("services.menu.url", defaultMenuURL),
			GuestURL: e.Config.GetStringOrDef("services.guest.url", defaultGuestURL),
			Timeout:  e.Config.GetDurationOrDef("client.timeout", client.DefaultRequestTimeout),
		})
	}
	return e.API
}

func (e *Env) persistence() client.Persistence {
	if e.Persist == nil {
		e.Persist = client.NewFilePersistence(e.Config.GetStringOrDef("client.state.file", defaultStateFile))
	}
	return e.Persist
}

func (e *Env) store(tableID int, actor role.Role, opts ...client.Option) *client.Store {
	opts = append([]client.Option{
		client.WithLogger(e.Logger),
		client.WithRole(actor),
	}, opts...)
	return client.NewStore(e.api(), e.persistence(), tableID, opts...)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return nil
}

func parseRole(name string) (role.Role, error) {
	r := role.ByName(name)
	if r == nil {
		return role.Role{}, fmt.Errorf("unknown role %q", name)
	}
	return *r, nil
}

func requireTable(tableID int) error {
	if tableID <= 0 {
		return errors.New("--table is required and must be positive")
	}
	return nil
}
