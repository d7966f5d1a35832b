package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/models"
	"github.com/Bhoomirana25/Student-Institute-smart-card/internal/session"
)

//go:embed fixture.toml
var defaultFixture []byte

// Fixture is the mock session the server starts with.
type Fixture struct {
	Student      models.Student       `toml:"student"`
	Transactions []models.Transaction `toml:"transactions"`
	Documents    []models.Document    `toml:"documents"`
}

// Default returns the embedded fixture.
func Default() (Fixture, error) {
	return decode(defaultFixture, "embedded fixture")
}

func LoadFile(path string) (Fixture, error) {
	var fx Fixture
	md, err := toml.DecodeFile(path, &fx)
	if err != nil {
		return Fixture{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Fixture{}, fmt.Errorf("decode %s: unknown keys %v", path, undecoded)
	}
	return fx, nil
}

// Load reads path, or the embedded fixture when path is empty.
func Load(path string) (Fixture, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

func decode(data []byte, name string) (Fixture, error) {
	var fx Fixture
	if _, err := toml.Decode(string(data), &fx); err != nil {
		return Fixture{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return fx, nil
}

// Run installs fx into the session unless the ledger already holds
// history, then reconciles the result.
func Run(ctx context.Context, sess *session.Session, fx Fixture, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	existing, err := sess.Ledger.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("seed check: %w", err)
	}
	if len(existing) > 0 {
		log.Info("seed already applied, skipping")
		return nil
	}

	if err := sess.Ledger.Restore(ctx, fx.Student.Balance, fx.Transactions); err != nil {
		return fmt.Errorf("seed ledger: %w", err)
	}
	if err := sess.Vault.Restore(ctx, fx.Documents); err != nil {
		return fmt.Errorf("seed vault: %w", err)
	}
	sess.SetStudent(fx.Student)

	if err := sess.Ledger.Reconcile(ctx); err != nil {
		return fmt.Errorf("seed reconcile: %w", err)
	}

	log.Info("seeded session",
		zap.String("student", fx.Student.ID),
		zap.Stringer("balance", fx.Student.Balance),
		zap.Int("transactions", len(fx.Transactions)),
		zap.Int("documents", len(fx.Documents)),
	)
	return nil
}
