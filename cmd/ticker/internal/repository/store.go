package repository

import (
	"context"
	"errors"

	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

// ErrNoSnapshot means the archive holds nothing for that key (never written,
// or already evicted by TTL).
var ErrNoSnapshot = errors.New("no archived snapshot")

// SessionArchiver mirrors live sessions into external storage so a restart
// (or another replica warming up) can restore them instead of reseeding.
type SessionArchiver interface {
	Save(ctx context.Context, snap models.SessionSnapshot) error
	Load(ctx context.Context, key string) (models.SessionSnapshot, error)
	Close() error
}
