
package crawler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWithWaitSelectorSharesBrowser(t *testing.T) {
	listing := NewBrowserFetcher(BrowserConfig{
		Headless:     true,
		WaitSelector: `div[class*="challenge-index_results"]`,
	}, zerolog.Nop())
	detail := listing.WithWaitSelector("")

	if detail.conn != listing.conn {
		t.Fatal("views must share one browser connection")
	}
	if detail.cfg.WaitSelector != "" {
		t.Fatalf("detail view kept wait selector %q", detail.cfg.WaitSelector)
	}
	if listing.cfg.WaitSelector == "" {
		t.Fatal("listing view lost its wait selector")
	}
	if detail.cfg.NavigationTimeout != 30*time.Second {
		t.Fatalf("unexpected navigation timeout %s", detail.cfg.NavigationTimeout)
	}
	if err := detail.Close(); err != nil {
		t.Fatalf("close without a started browser: %v", err)
	}
}
