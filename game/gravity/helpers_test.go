package gravity

import (
	"testing"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tetris/game/config"
	"github.com/wricardo/mcp-training/tetris/game/service"
	"github.com/wricardo/mcp-training/tetris/game/session"
)

func newRealService(t *testing.T) service.GameService {
	t.Helper()
	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	return service.NewGameService(session.NewManager(zap.NewNop()), configs, zap.NewNop())
}
