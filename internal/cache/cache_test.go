package cache

import (
	"strings"
	"testing"
)

func TestKeyNormalizesPrompt(t *testing.T) {
	a := Key("u1", "Create a Counter App")
	b := Key("u1", "  create   a counter app ")
	if a != b {
		t.Errorf("equivalent prompts map to different keys:\n%s\n%s", a, b)
	}
}

func TestKeyScopedPerUser(t *testing.T) {
	if Key("u1", "create a counter app") == Key("u2", "create a counter app") {
		t.Error("different users share a cache key")
	}
}

func TestKeyDistinguishesPrompts(t *testing.T) {
	if Key("u1", "create a counter app") == Key("u1", "create a todo app") {
		t.Error("different prompts share a cache key")
	}
}

func TestKeyShape(t *testing.T) {
	key := Key("u1", "create a counter app")
	if !strings.HasPrefix(key, "appforge:result:u1:") {
		t.Errorf("key = %s, want appforge:result:u1: prefix", key)
	}
}
