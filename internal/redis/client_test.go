package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)

	in := &SessionData{SessionID: "s1", Language: "hindi", Flow: "order", Step: 2, Data: map[string]string{"items": "ORS:2"}}
	if err := c.SetSession(ctx, "s1", in, time.Minute); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if !mr.Exists("session:s1") {
		t.Fatal("key session:s1 not written")
	}

	got, err := c.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Flow != "order" || got.Step != 2 || got.Data["items"] != "ORS:2" {
		t.Errorf("session = %+v", got)
	}

	got.Step = 3
	if err := c.UpdateSession(ctx, "s1", got, time.Minute); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}

	if err := c.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := c.GetSession(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestClient(t)
	c.SetSession(ctx, "s1", &SessionData{Flow: "menu"}, time.Minute)

	mr.FastForward(2 * time.Minute)
	if _, err := c.GetSession(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}
