package util

import (
	"reflect"
	"testing"
)

func TestSplitSymbols(t *testing.T) {
	got := SplitSymbols(" btc, ETH,,btc , sol")
	want := []string{"BTC", "ETH", "SOL"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseIntDefault(t *testing.T) {
	if ParseIntDefault("", 7) != 7 || ParseIntDefault("x", 7) != 7 || ParseIntDefault("3", 7) != 3 {
		t.Fatalf("unexpected ParseIntDefault result")
	}
}
