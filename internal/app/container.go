// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runoshun/agentdeck/internal/domain"
	"github.com/runoshun/agentdeck/internal/infra/config"
	"github.com/runoshun/agentdeck/internal/infra/executor"
	"github.com/runoshun/agentdeck/internal/infra/gitdiff"
	"github.com/runoshun/agentdeck/internal/infra/github"
	"github.com/runoshun/agentdeck/internal/infra/logging"
	"github.com/runoshun/agentdeck/internal/infra/notify"
	"github.com/runoshun/agentdeck/internal/infra/seed"
	"github.com/runoshun/agentdeck/internal/infra/sqlitestore"
	"github.com/runoshun/agentdeck/internal/infra/tmux"
	"github.com/runoshun/agentdeck/internal/infra/usage"
	"github.com/runoshun/agentdeck/internal/infra/worktree"
	"github.com/runoshun/agentdeck/internal/loop"
	"github.com/runoshun/agentdeck/internal/poller"
	"github.com/runoshun/agentdeck/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	Home          string // agentdeck home directory
	GlobalConfDir string // Path to the global config directory (e.g. ~/.config/agentdeck)
	StorePath     string // Path to deck.db
	SocketPath    string // Path to the status socket
	TmuxSocket    string // Path to the tmux socket
	Executable    string // deck binary embedded in launch scripts
}

// ResolveHome returns $DECK_HOME, else $XDG_DATA_HOME/agentdeck,
// else ~/.local/share/agentdeck.
func ResolveHome() (string, error) {
	if home := os.Getenv(domain.HomeEnv); home != "" {
		return filepath.Abs(home)
	}
	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, domain.AppDirName), nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(userHome, ".local", "share", domain.AppDirName), nil
}

// newConfig creates a new Config for home.
func newConfig(home string) Config {
	exe, err := os.Executable()
	if err != nil {
		exe = "deck"
	}
	return Config{
		Home:          home,
		GlobalConfDir: config.DefaultGlobalConfigDir(),
		StorePath:     domain.StorePath(home),
		SocketPath:    domain.SocketPath(home),
		TmuxSocket:    domain.TmuxSocketPath(home),
		Executable:    exe,
	}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Store         domain.Store
	Clock         domain.Clock
	Terminal      domain.Terminal
	Workspaces    domain.WorkspaceManager
	Seeder        domain.WorkspaceSeeder
	Differ        domain.DiffStatter
	Notifier      domain.Notifier
	Usage         domain.UsageFetcher
	Reviews       domain.ReviewChecker
	ConfigManager domain.ConfigManager

	// Pointer fields
	AppConfig *domain.Config
	Logger    *logging.Logger
	Tmux      *tmux.Client
	notifier  *notify.Notifier

	// Configuration
	Config Config
}

// New creates a new Container for home. It loads the configuration,
// creates the home directory and opens the store.
func New(ctx context.Context, home string) (*Container, error) {
	cfg := newConfig(home)
	if err := os.MkdirAll(home, 0o750); err != nil {
		return nil, fmt.Errorf("create home directory: %w", err)
	}

	loader := config.NewLoaderWithGlobalDir(home, cfg.GlobalConfDir)
	appConfig, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(home, logging.ParseLevel(appConfig.Log.Level))

	store, err := sqlitestore.Open(ctx, cfg.StorePath)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	execClient := executor.NewClient()
	notifier, err := notify.NewNotifier(appConfig.Notify.Command, execClient, logger)
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	tmuxClient := tmux.NewClient(cfg.TmuxSocket)

	return &Container{
		Store:         store,
		Clock:         domain.RealClock{},
		Terminal:      tmuxClient,
		Workspaces:    worktree.NewClient(execClient),
		Seeder:        seed.NewSeeder(execClient, cfg.GlobalConfDir, cfg.Executable),
		Differ:        gitdiff.NewClient(),
		Notifier:      notifier,
		Usage:         usage.NewFetcher(appConfig.Usage.URL, appConfig.Usage.Credentials),
		Reviews:       github.NewChecker(execClient),
		ConfigManager: config.NewManagerWithGlobalDir(home, cfg.GlobalConfDir),
		AppConfig:     appConfig,
		Logger:        logger,
		Tmux:          tmuxClient,
		notifier:      notifier,
		Config:        cfg,
	}, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, appConfig *domain.Config, store domain.Store, logger *logging.Logger) *Container {
	return &Container{
		Store:     store,
		Clock:     domain.RealClock{},
		AppConfig: appConfig,
		Logger:    logger,
		Config:    cfg,
	}
}

// Close waits for pending notifications and releases the store and log files.
func (c *Container) Close() error {
	if c.notifier != nil {
		c.notifier.Wait()
	}
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Logger != nil {
		errs = append(errs, c.Logger.Close())
	}
	return errors.Join(errs...)
}

// UseCase factory methods

// AddProjectUseCase returns a new AddProject use case.
func (c *Container) AddProjectUseCase() *usecase.AddProject {
	return usecase.NewAddProject(c.Store, c.Clock, c.Logger)
}

// ListProjectsUseCase returns a new ListProjects use case.
func (c *Container) ListProjectsUseCase() *usecase.ListProjects {
	return usecase.NewListProjects(c.Store)
}

// RemoveProjectUseCase returns a new RemoveProject use case.
func (c *Container) RemoveProjectUseCase() *usecase.RemoveProject {
	return usecase.NewRemoveProject(c.Store, c.TeardownSessionUseCase(), c.Logger)
}

// NewTaskUseCase returns a new NewTask use case.
func (c *Container) NewTaskUseCase() *usecase.NewTask {
	return usecase.NewNewTask(c.Store, c.Clock, c.Logger)
}

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Store)
}

// ShowTaskUseCase returns a new ShowTask use case.
func (c *Container) ShowTaskUseCase() *usecase.ShowTask {
	return usecase.NewShowTask(c.Store)
}

// PruneTasksUseCase returns a new PruneTasks use case.
func (c *Container) PruneTasksUseCase() *usecase.PruneTasks {
	return usecase.NewPruneTasks(c.Store, c.Logger)
}

// DeleteTaskUseCase returns a new DeleteTask use case.
func (c *Container) DeleteTaskUseCase() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.Store, c.Logger)
}

// MoveTaskUseCase returns a new MoveTask use case.
func (c *Container) MoveTaskUseCase() *usecase.MoveTask {
	return usecase.NewMoveTask(c.Store)
}

// ImportTasksUseCase returns a new ImportTasks use case.
func (c *Container) ImportTasksUseCase() *usecase.ImportTasks {
	return usecase.NewImportTasks(c.Store, c.Clock, c.Logger)
}

// LaunchTaskUseCase returns a new LaunchTask use case.
func (c *Container) LaunchTaskUseCase() *usecase.LaunchTask {
	return usecase.NewLaunchTask(c.Store, c.Terminal, c.Workspaces, c.Seeder, c.Differ, c.Clock, c.Logger,
		usecase.LaunchOptions{
			Home:         c.Config.Home,
			AgentCommand: c.AppConfig.Agent.Command,
			DeckBin:      c.Config.Executable,
		})
}

// TeardownSessionUseCase returns a new TeardownSession use case.
func (c *Container) TeardownSessionUseCase() *usecase.TeardownSession {
	return usecase.NewTeardownSession(c.Store, c.Terminal, c.Workspaces, c.Differ, c.Clock, c.Logger, c.Config.Home)
}

// FocusSessionUseCase returns a new FocusSession use case.
func (c *Container) FocusSessionUseCase() *usecase.FocusSession {
	return usecase.NewFocusSession(c.Store, c.Terminal)
}

// PeekSessionUseCase returns a new PeekSession use case.
func (c *Container) PeekSessionUseCase() *usecase.PeekSession {
	return usecase.NewPeekSession(c.Store, c.Terminal)
}

// ShowDiffUseCase returns a new ShowDiff use case.
func (c *Container) ShowDiffUseCase() *usecase.ShowDiff {
	return usecase.NewShowDiff(c.Store, c.Differ)
}

// SendKeysUseCase returns a new SendKeys use case.
func (c *Container) SendKeysUseCase() *usecase.SendKeys {
	return usecase.NewSendKeys(c.Store, c.Terminal, c.Logger)
}

// FeedNextUseCase returns a new FeedNext use case.
func (c *Container) FeedNextUseCase() *usecase.FeedNext {
	return usecase.NewFeedNext(c.Store, c.Terminal, c.Clock, c.Logger)
}

// ReportCompletionUseCase returns a new ReportCompletion use case.
func (c *Container) ReportCompletionUseCase() *usecase.ReportCompletion {
	return usecase.NewReportCompletion(c.Store, c.Terminal, c.Notifier, c.FeedNextUseCase(), c.Clock, c.Logger)
}

// ApplyUsageUseCase returns a new ApplyUsage use case.
func (c *Container) ApplyUsageUseCase() *usecase.ApplyUsage {
	return usecase.NewApplyUsage(c.Store, c.Clock, c.Logger)
}

// StatusChannel returns the domain.StatusReporter applying reports to the store.
func (c *Container) StatusChannel() *usecase.StatusChannel {
	completion := c.ReportCompletionUseCase()
	return usecase.NewStatusChannel(
		usecase.NewReportStatus(c.Store, completion, c.Clock),
		completion,
		usecase.NewReportTokens(c.Store, c.Logger),
		usecase.NewReportRateLimit(c.Store, c.Clock, c.Logger),
		usecase.NewReportUsage(c.Store, c.ApplyUsageUseCase()),
	)
}

// MarkDoneUseCase returns a new MarkDone use case.
func (c *Container) MarkDoneUseCase() *usecase.MarkDone {
	return usecase.NewMarkDone(c.Store, c.TeardownSessionUseCase(), c.Logger)
}

// MarkErrorUseCase returns a new MarkError use case.
func (c *Container) MarkErrorUseCase() *usecase.MarkError {
	return usecase.NewMarkError(c.Store, c.Clock, c.Logger)
}

// OverviewUseCase returns a new Overview use case.
func (c *Container) OverviewUseCase() *usecase.Overview {
	return usecase.NewOverview(c.Store)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowLogsUseCase returns a new ShowLogs use case.
func (c *Container) ShowLogsUseCase() *usecase.ShowLogs {
	return usecase.NewShowLogs(c.Store, c.Config.Home)
}

// Supervisor bundles the control loop with its pollers.
type Supervisor struct {
	Loop       *loop.Loop
	Usage      *poller.UsagePoller
	Completion *poller.CompletionPoller
	Queue      *poller.Queue
}

// Supervisor builds the control loop and the pollers feeding it.
func (c *Container) Supervisor() *Supervisor {
	queue := poller.NewQueue(poller.DefaultQueueSize)
	timeout := c.AppConfig.Poll.Timeout
	return &Supervisor{
		Loop: loop.New(c.Store, c.FeedNextUseCase(), c.ApplyUsageUseCase(), c.MarkDoneUseCase(),
			queue, c.Clock, c.Logger),
		Usage:      poller.NewUsagePoller(c.Usage, queue, c.Clock, c.Logger, timeout),
		Completion: poller.NewCompletionPoller(c.Store, c.Reviews, queue, c.Logger, timeout),
		Queue:      queue,
	}
}
