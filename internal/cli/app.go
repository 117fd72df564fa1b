// Package cli is the bidctl terminal client. Each role gets its own command section and
// the session survives between runs in a viper-managed YAML file.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"buildbid/internal/apiclient"
	"buildbid/internal/model"
)

const (
	defaultServer     = "http://localhost:8080"
	defaultConfigName = ".bidctl.yaml"

	keyServer        = "server"
	keySessionToken  = "session.token"
	keySessionUserID = "session.user_id"
	keySessionEmail  = "session.email"
	keySessionRole   = "session.role"
)

var ErrLoginRequired = errors.New("login required")

// Options configures the command tree. Zero values pick the defaults.
type Options struct {
	ConfigFile string
	HTTPClient *http.Client
	Logger     *zap.Logger
	// KeepAliveSchedule is the cron spec for push token re-registration.
	KeepAliveSchedule string
}

type app struct {
	opts   Options
	v      *viper.Viper
	api    *apiclient.Client
	logger *zap.Logger
	json   bool
	ready  bool
}

func newApp(opts Options) *app {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KeepAliveSchedule == "" {
		opts.KeepAliveSchedule = "@hourly"
	}
	v := viper.New()
	v.SetDefault(keyServer, defaultServer)
	v.SetEnvPrefix("BIDCTL")
	v.AutomaticEnv()
	return &app{opts: opts, v: v, logger: opts.Logger}
}

func (a *app) configFile() string {
	if a.opts.ConfigFile != "" {
		return a.opts.ConfigFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(home, defaultConfigName)
}

// setup reads the config file and builds the API client with the stored session. It runs once per invocation.
func (a *app) setup() error {
	if a.ready {
		return nil
	}
	a.v.SetConfigFile(a.configFile())
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("read %s: %w", a.configFile(), err)
		}
	}

	opts := []apiclient.Option{apiclient.WithLogger(a.logger), apiclient.WithHTTPClient(a.opts.HTTPClient)}
	if s := a.storedSession(); s != nil {
		opts = append(opts, apiclient.WithSession(s))
	}
	a.api = apiclient.New(a.v.GetString(keyServer), opts...)
	a.ready = true
	return nil
}

func (a *app) storedSession() *apiclient.Session {
	id, err := uuid.Parse(a.v.GetString(keySessionUserID))
	if err != nil {
		return nil
	}
	s := &apiclient.Session{
		Token:  a.v.GetString(keySessionToken),
		UserID: id,
		Email:  a.v.GetString(keySessionEmail),
		Role:   model.Role(a.v.GetString(keySessionRole)),
	}
	if !s.Valid() {
		return nil
	}
	return s
}

// saveSession persists s, or clears the stored session when s is nil.
func (a *app) saveSession(s *apiclient.Session) error {
	if s == nil {
		s = &apiclient.Session{}
	}
	userID := ""
	if s.UserID != uuid.Nil {
		userID = s.UserID.String()
	}
	a.v.Set(keySessionToken, s.Token)
	a.v.Set(keySessionUserID, userID)
	a.v.Set(keySessionEmail, s.Email)
	a.v.Set(keySessionRole, string(s.Role))

	if err := a.v.WriteConfigAs(a.configFile()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// requireRole is the allowlist check in front of every role section.
func (a *app) requireRole(roles ...model.Role) error {
	if err := a.setup(); err != nil {
		return err
	}
	s := a.api.Session()
	if !s.Valid() {
		return ErrLoginRequired
	}
	for _, r := range roles {
		if s.Role == r {
			return nil
		}
	}
	return fmt.Errorf("forbidden for role %s", s.Role)
}

func (a *app) guard(roles ...model.Role) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return a.requireRole(roles...)
	}
}

func (a *app) loggedIn(cmd *cobra.Command, args []string) error {
	return a.requireRole(model.RoleAdmin, model.RoleContractor, model.RoleClient)
}

// emit prints v as indented JSON when --json is set, otherwise runs the text renderer.
func (a *app) emit(w io.Writer, v any, text func(io.Writer) error) error {
	if a.json || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}
