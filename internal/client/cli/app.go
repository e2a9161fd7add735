package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/dmoclinic/internal/authx"
	"github.com/dmitrijs2005/dmoclinic/internal/client/checklist"
	"github.com/dmitrijs2005/dmoclinic/internal/client/config"
	"github.com/dmitrijs2005/dmoclinic/internal/client/localstore"
	"github.com/dmitrijs2005/dmoclinic/internal/client/milestones"
	"github.com/dmitrijs2005/dmoclinic/internal/client/models"
	"github.com/dmitrijs2005/dmoclinic/internal/client/remote"
	"github.com/dmitrijs2005/dmoclinic/internal/client/services"
	"github.com/dmitrijs2005/dmoclinic/internal/filex"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/dmitrijs2005/dmoclinic/internal/timex"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

type App struct {
	config   *config.Config
	logger   logging.Logger
	identity authx.Identity
	clock    timex.Clock

	remote *remote.GRPCStore
	db     *sql.DB

	accounts  services.AccountService
	diets     services.DietService
	chat      services.ChatService
	schedule  services.ScheduleService
	engine    *milestones.Engine
	checklist *checklist.Cache

	reader *bufio.Reader
	out    io.Writer

	mu          sync.Mutex
	activeDiet  *models.Diet
	stopWatcher context.CancelFunc
	watcherDone chan struct{}
}

// deps are the collaborators of an App.
type deps struct {
	store    store.Store
	local    localstore.Repository
	clock    timex.Clock
	identity authx.Identity
	in       io.Reader
	out      io.Writer
}

func newApp(cfg *config.Config, logger logging.Logger, d deps) *App {
	var opts []checklist.Option
	if cfg.ReconcileChecklist {
		opts = append(opts, checklist.WithReconcile())
	}

	return &App{
		config:    cfg,
		logger:    logger,
		identity:  d.identity,
		clock:     d.clock,
		accounts:  services.NewAccountService(d.store, cfg.ClinicianEmails, logger),
		diets:     services.NewDietService(d.store, logger),
		chat:      services.NewChatService(d.store, d.clock, logger),
		schedule:  services.NewScheduleService(d.store),
		engine:    milestones.NewEngine(d.store, logger),
		checklist: checklist.New(d.local, d.clock, logger, opts...),
		reader:    bufio.NewReader(d.in),
		out:       d.out,
	}
}

// NewApp builds the client: it resolves the access token (prompting for it
// when not configured), opens the local database and connects to the
// document store.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, err
	}

	token := cfg.AccessToken
	if token == "" {
		token, err = getSecret("Enter access token", os.Stdout)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
	}
	identity, err := authx.PeekClaims(token)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}

	dbPath, err := filex.EnsureParentDir(cfg.LocalDatabasePath)
	if err != nil {
		return nil, err
	}
	db, repo, err := localstore.Open(ctx, dbPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	gs, err := remote.NewGRPCStore(cfg.ServerEndpointAddr, token, cfg.StoreTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(cfg, logger, deps{
		store:    gs,
		local:    repo,
		clock:    timex.SystemClock{},
		identity: identity,
		in:       os.Stdin,
		out:      os.Stdout,
	})
	a.remote = gs
	a.db = db
	return a, nil
}

// Run starts the REPL and blocks until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to DMO Clinic (type 'help' for commands)")

	if a.remote != nil {
		if err := a.remote.Ping(ctx); err != nil {
			a.logger.Warn(ctx, "document store unavailable", "addr", a.config.ServerEndpointAddr, "error", err)
		}
	}

	runREPL(ctx, a.commands(), a.identity.IsClinician(), a.status, a.reader, a.out)
	return nil
}

// Close stops the rollover watcher and releases the connections.
func (a *App) Close() error {
	a.stopRolloverWatcher()

	var err error
	if a.remote != nil {
		err = a.remote.Close()
		a.remote = nil
	}
	if a.db != nil {
		if cerr := a.db.Close(); err == nil {
			err = cerr
		}
		a.db = nil
	}
	return err
}

func (a *App) status() string {
	return fmt.Sprintf("(%s %s)", a.identity.UserID, a.identity.Role)
}

func (a *App) commands() []command {
	return []command{
		{name: "register", usage: "register", run: a.register},
		{name: "profile", usage: "profile [user id]", run: a.profile},
		{name: "weight", usage: "weight <kg>", run: a.recordWeight},
		{name: "diet", usage: "diet [diet id]", run: a.showDiet},
		{name: "check", usage: "check <meal> <item>", run: a.check},
		{name: "reset", usage: "reset", run: a.resetChecklist},
		{name: "hours", usage: "hours", run: a.showHours},
		{name: "chat", usage: "chat [chat id]", run: a.showChat},
		{name: "send", usage: "send [chat id] <text>", run: a.send},

		{name: "patients", usage: "patients", clinician: true, run: a.listPatients},
		{name: "milestone", usage: "milestone <user id> <kg> <points>", clinician: true, run: a.setMilestone},
		{name: "points", usage: "points <user id> <delta>", clinician: true, run: a.adjustPoints},
		{name: "target", usage: "target <user id> <kg|->", clinician: true, run: a.setTarget},
		{name: "diets", usage: "diets", clinician: true, run: a.listDiets},
		{name: "newdiet", usage: "newdiet", clinician: true, run: a.newDiet},
		{name: "assign", usage: "assign <user id> <diet id>", clinician: true, run: a.assignDiet},
		{name: "sethours", usage: "sethours <day>=<HH:mm>-<HH:mm> ...", clinician: true, run: a.setHours},
		{name: "sessions", usage: "sessions", clinician: true, run: a.listSessions},
	}
}
