package capture

import (
	"context"
	"testing"
	"time"
)

func TestNormalizeDefaults(t *testing.T) {
	o := CaptureOptions{BaseURL: "http://x", OutputPath: "out.png"}
	if err := o.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout != DefaultTimeoutSec*time.Second {
		t.Errorf("defaults = %+v", o)
	}
}

func TestCapturePNGValidates(t *testing.T) {
	ctx := context.Background()
	if err := CapturePNG(ctx, CaptureOptions{OutputPath: "out.png"}); err == nil {
		t.Error("missing BaseURL should fail before launching a browser")
	}
	if err := CapturePNG(ctx, CaptureOptions{BaseURL: "http://x"}); err == nil {
		t.Error("missing OutputPath should fail before launching a browser")
	}
}
