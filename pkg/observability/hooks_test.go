package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLoaderHooks{}
	l.OnLoadStart(ctx, "http://localhost/tree.json")
	l.OnLoadComplete(ctx, "http://localhost/tree.json", 3, time.Second, errors.New("boom"))

	p := NoopPipelineHooks{}
	p.OnLayoutStart(ctx, "rev", 3)
	p.OnLayoutComplete(ctx, "rev", 3, 2, time.Millisecond)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "artifact")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "localhost", "/tree.json")
	h.OnResponse(ctx, "GET", "localhost", "/tree.json", 200, time.Second)
	h.OnError(ctx, "GET", "localhost", "/tree.json", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Loader().(NoopLoaderHooks); !ok {
		t.Error("Loader() should return NoopLoaderHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customLoader := &testLoaderHooks{}
	SetLoaderHooks(customLoader)
	if Loader() != customLoader {
		t.Error("SetLoaderHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
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

	Reset()
	if _, ok := Loader().(NoopLoaderHooks); !ok {
		t.Error("Reset() should restore NoopLoaderHooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testLoaderHooks{}
	SetLoaderHooks(custom)
	SetLoaderHooks(nil)

	if Loader() != custom {
		t.Error("SetLoaderHooks(nil) should be ignored")
	}
}

type testLoaderHooks struct{ NoopLoaderHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
