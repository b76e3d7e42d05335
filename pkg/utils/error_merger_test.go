package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, merged <-chan error) []string {
	t.Helper()
	var got []string
	timeout := time.After(time.Second)
	for {
		select {
		case err, ok := <-merged:
			if !ok {
				return got
			}
			got = append(got, err.Error())
		case <-timeout:
			t.Fatal("timeout waiting for merged channel to close")
		}
	}
}

func TestMergeErrorChans(t *testing.T) {
	ch1 := make(chan error, 1)
	ch2 := make(chan error, 1)
	merged := MergeErrorChans(ch1, ch2)

	ch1 <- errors.New("api listener failed")
	ch2 <- errors.New("metrics listener failed")
	close(ch1)
	close(ch2)

	got := collect(t, merged)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"api listener failed", "metrics listener failed"}, got)
}

func TestMergeErrorChans_SkipsNil(t *testing.T) {
	ch := make(chan error)
	merged := MergeErrorChans(nil, ch)
	close(ch)

	assert.Empty(t, collect(t, merged))
}

func TestMergeErrorChans_NoInputs(t *testing.T) {
	assert.Empty(t, collect(t, MergeErrorChans()))
}
