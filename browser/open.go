package browser

import (
	"fmt"

	"github.com/BigNoodles/carlot/config"
	"github.com/BigNoodles/carlot/utils"
)

// New builds the Opener selected by cfg.Backend, throttled to
// cfg.RequestsPerSecond. The returned func releases the backend.
func New(cfg *config.Config, log *utils.Logger) (Opener, func(), error) {
	var (
		opener Opener
		closer = func() {}
	)

	switch cfg.Backend {
	case config.BackendChrome:
		c := NewChrome(cfg, log)
		opener, closer = c, c.Close
	case config.BackendPlaywright:
		p, err := NewPlaywright(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		opener, closer = p, p.Close
	case config.BackendStatic:
		opener = NewStatic(cfg, log)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	return Throttle(opener, NewLimiter(cfg.RequestsPerSecond)), closer, nil
}
