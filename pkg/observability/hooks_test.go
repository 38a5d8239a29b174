package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Acquisition hooks
	a := NoopAcquisitionHooks{}
	a.OnTransferStart(ctx, "cometlib", "http://localhost:8000/cometlib.tar.gz")
	a.OnTransferComplete(ctx, "cometlib", 4096, time.Second, nil)
	a.OnExtractStart(ctx, "cometlib", "gz")
	a.OnExtractComplete(ctx, "cometlib", "gz", time.Second, nil)
	a.OnRegistrySave(ctx, 3, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "constellation")
	c.OnCacheMiss(ctx, "constellation")
	c.OnCacheSet(ctx, "constellation", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "localhost:8000", "/hoshi-core-constellation.json")
	h.OnResponse(ctx, "GET", "localhost:8000", "/hoshi-core-constellation.json", 200, time.Second)
	h.OnError(ctx, "GET", "localhost:8000", "/hoshi-core-constellation.json", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Acquisition().(NoopAcquisitionHooks); !ok {
		t.Error("Acquisition() should return NoopAcquisitionHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customAcquisition := &testAcquisitionHooks{}
	SetAcquisitionHooks(customAcquisition)
	if Acquisition() != customAcquisition {
		t.Error("SetAcquisitionHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Acquisition().(NoopAcquisitionHooks); !ok {
		t.Error("Reset() should restore NoopAcquisitionHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testAcquisitionHooks{}
	SetAcquisitionHooks(custom)

	// Setting nil should be ignored
	SetAcquisitionHooks(nil)

	if Acquisition() != custom {
		t.Error("SetAcquisitionHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testAcquisitionHooks struct{ NoopAcquisitionHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
