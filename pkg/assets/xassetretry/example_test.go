package xassetretry_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xassets/pkg/assets/xassetretry"
)

func Example() {
	engine, err := xassetretry.New(
		xassetretry.WithDomainMap(map[string]string{"a.com": "b.com"}),
		xassetretry.WithMaxRetryCount(1),
		xassetretry.WithOnFail(func(_ context.Context, path string) {
			fmt.Println("fail:", path)
		}),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx := context.Background()

	o, _ := engine.OnFailure(ctx, "http://a.com/x.png")
	fmt.Println(o.Action, o.URL)

	o, _ = engine.OnFailure(ctx, o.URL)
	fmt.Println(o.Action, o.Reason)

	fmt.Println(engine.Snapshot()["a.com"].RetryCount)
	// Output:
	// retry http://b.com/x.png
	// fail: /x.png
	// terminal exhausted
	// 2
}

func ExampleAdaptDynamicHook() {
	hook := xassetretry.AdaptDynamicHook(func(_ context.Context, newURL, _ string, stats xassetretry.Stats) any {
		if stats.RetryCount > 1 {
			return nil
		}
		return newURL
	})
	engine, _ := xassetretry.New(
		xassetretry.WithDomainRing([]string{"a.com", "b.com"}),
		xassetretry.WithOnRetry(hook),
	)
	ctx := context.Background()

	o, _ := engine.OnFailure(ctx, "https://a.com/app.js")
	fmt.Println(o.Action, o.URL)
	o, _ = engine.OnFailure(ctx, "https://a.com/app.js")
	fmt.Println(o.Action, o.Reason)
	// Output:
	// retry https://b.com/app.js
	// ignore vetoed
}
