package chanfilter

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	nt "chanfilter/entity"
	"chanfilter/catalog"
	"chanfilter/condition"
	"chanfilter/grammar"
	"chanfilter/guard"
)

// Todo: persist the seen memo across sessions, keyed by records file

// Store specifies a records backend.
type Store interface {
	guard.Estimator
	// Page returns a page of records matching cond.
	Page(ctx context.Context, cond nt.Condition, sorts []nt.Sort, offset, size int) (records []nt.Record, err error)
	// Channels lists the channels present in the records.
	Channels(ctx context.Context) (channels []nt.ChannelInfo, err error)
}

// Config is the user facing configuration.
type Config struct {
	// RecordLimitWarning is the count above which an apply asks for
	// confirmation, guard.NoWarning to never ask.
	RecordLimitWarning int `yaml:"record_limit_warning"`
	// Channels are catalog entries in addition to those found in records.
	Channels []nt.ChannelInfo `yaml:"channels,omitempty"`
	// Filters are expressions applied at startup.
	Filters []string `yaml:"filters,omitempty"`
	// Records is the path of an NDJSON records file.
	Records string `yaml:"records,omitempty"`
	// LogFile is where the editor logs.
	LogFile string `yaml:"log_file,omitempty"`
}

// Defaults returns a config with nothing set and the guard off.
func Defaults() *Config {
	return &Config{RecordLimitWarning: guard.NoWarning}
}

// Catalog builds a catalog of the fixed channels, then found, then those
// configured.
func (cfg *Config) Catalog(found ...nt.ChannelInfo) *catalog.Static {

	extra := append([]nt.ChannelInfo{}, found...)
	extra = append(extra, cfg.Channels...)

	return catalog.New(extra...)
}

// New creates a session with configured filters already applied.
// est may be nil, in which case the guard never sees a count.
func (cfg *Config) New(cat catalog.Catalog, est guard.Estimator, lgr nt.Logger) (sn *Session, err error) {

	sn = &Session{
		ID:        uuid.NewString(),
		catalog:   cat,
		lexer:     grammar.NewLexer(cat),
		validator: grammar.NewValidator(cat),
		compiler:  condition.New(cat),
		guard:     guard.New(cfg.RecordLimitWarning),
		estimator: est,
		logger:    lgr,
		drafts:    nt.FilterSet{{}},
		applied:   nt.FilterSet{{}},
	}

	if len(cfg.Filters) == 0 {
		return
	}

	set := nt.FilterSet{}
	for _, text := range cfg.Filters {
		var expr nt.Expression
		expr, err = sn.lexer.Tokenize(text)
		if err != nil {
			err = errors.Wrapf(err, "failed to read filter %q", text)
			return
		}
		set = append(set, expr)
	}

	err = sn.preload(set)
	return
}
