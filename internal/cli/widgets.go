package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	contactsDomain "github.com/pendergraft/listingdesk/internal/contacts/domain"
	listsDomain "github.com/pendergraft/listingdesk/internal/lists/domain"
	locationDomain "github.com/pendergraft/listingdesk/internal/location/domain"
	mediaDomain "github.com/pendergraft/listingdesk/internal/media/domain"
	"github.com/pendergraft/listingdesk/internal/notify"
	portalsDomain "github.com/pendergraft/listingdesk/internal/portals/domain"
	statusDomain "github.com/pendergraft/listingdesk/internal/status/domain"
	"github.com/pendergraft/listingdesk/internal/storage"
	"github.com/pendergraft/listingdesk/pkg/client"
)

// widgets wires the domain services of one command invocation.
type widgets struct {
	platform *client.Client
	config   *ProjectConfig
	logger   *slog.Logger
}

func newWidgets(cmd *cobra.Command) (*widgets, error) {
	url, err := requirePlatform()
	if err != nil {
		return nil, err
	}
	cfg := loadProjectConfigSilent()
	if cfg == nil {
		cfg = &ProjectConfig{}
	}
	return &widgets{
		platform: client.New(url, getToken(), client.WithUserAgent("listingdesk-cli")),
		config:   cfg,
		logger:   newLogger(cmd),
	}, nil
}

// openLists opens the view state store and the list-view service. The returned
// close func releases the store.
func (w *widgets) openLists(ctx context.Context) (listsDomain.Service, func(), error) {
	path := getStatePath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("creating state directory: %w", err)
	}
	store, err := storage.NewSQLiteStore(path, w.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening view state: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("migrating view state: %w", err)
	}
	svc := listsDomain.NewService(w.platform, store, listsDomain.Options{
		RecordLimit:     w.config.Views.RecordLimit,
		PageSizes:       w.config.Views.PageSizes,
		DefaultPageSize: w.config.Views.DefaultPageSize,
		StateRetention:  30 * 24 * time.Hour,
	}, w.logger)
	return svc, func() { store.Close() }, nil
}

func (w *widgets) portals() portalsDomain.Service {
	return portalsDomain.NewService(w.platform, portalsDomain.Options{}, w.logger)
}

func (w *widgets) contacts() contactsDomain.Service {
	return contactsDomain.NewService(w.platform, w.logger)
}

func (w *widgets) media() mediaDomain.Service {
	return mediaDomain.NewService(w.platform, w.config.MediaDownloadPrefix, w.logger)
}

func (w *widgets) status() statusDomain.Service {
	return statusDomain.NewService(w.platform, w.logger)
}

func (w *widgets) location() locationDomain.Service {
	return locationDomain.NewService(w.platform, w.logger)
}

// run executes op with a notification collector and returns what it gathered.
func run(cmd *cobra.Command, op func(ctx context.Context) error) ([]notify.Notification, error) {
	ctx, notes := notify.Collect(cmd.Context())
	err := op(ctx)
	return notes.Drain(), err
}

// failed prints the toasts of a failed operation. It returns errReported when there
// were toasts to show, otherwise err.
func failed(cmd *cobra.Command, notes []notify.Notification, err error) error {
	if len(notes) == 0 {
		return err
	}
	render(cmd, "error", err.Error(), notes, nil)
	return errReported
}
