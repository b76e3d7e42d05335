package prompt_manager

import (
	"context"
	"errors"
	"testing"

	"github.com/lewisedginton/dating_coach/internal/storage_manager/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("creates manager with valid provider", func(t *testing.T) {
		manager := New(mocks.NewFileProvider(t), 2)
		assert.Equal(t, 2, manager.Version())
	})

	t.Run("clamps version", func(t *testing.T) {
		assert.Equal(t, 1, New(mocks.NewFileProvider(t), 0).Version())
	})

	t.Run("panics with nil provider", func(t *testing.T) {
		assert.Panics(t, func() { New(nil, 1) })
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "score/sentimental_analysis_system_v1.txt", FileName("score/sentimental_analysis", KindSystem, 1))
	assert.Equal(t, "x_user_v3.txt", FileName("x", KindUser, 3))
}

func TestPromptManager_System(t *testing.T) {
	ctx := context.Background()

	t.Run("substitutes placeholders", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().
			Read(mock.Anything, "memory/classifier_system_v1.txt").
			Return([]byte("카테고리: {categories}. {unknown}"), nil)

		manager := New(provider, 1)
		got, err := manager.System(ctx, "memory/classifier", map[string]string{"categories": "고민, 생활습관"})

		require.NoError(t, err)
		assert.Equal(t, "카테고리: 고민, 생활습관. {unknown}", got)
	})

	t.Run("caches reads", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().
			Read(mock.Anything, "a_system_v1.txt").
			Return([]byte("prompt"), nil).
			Once()

		manager := New(provider, 1)
		for i := 0; i < 3; i++ {
			got, err := manager.System(ctx, "a", nil)
			require.NoError(t, err)
			assert.Equal(t, "prompt", got)
		}
	})

	t.Run("invalidate rereads", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().Read(mock.Anything, "a_system_v1.txt").Return([]byte("v1"), nil).Once()
		provider.EXPECT().Read(mock.Anything, "a_system_v1.txt").Return([]byte("v2"), nil).Once()

		manager := New(provider, 1)
		first, err := manager.System(ctx, "a", nil)
		require.NoError(t, err)
		manager.Invalidate()
		second, err := manager.System(ctx, "a", nil)
		require.NoError(t, err)

		assert.Equal(t, "v1", first)
		assert.Equal(t, "v2", second)
	})

	t.Run("returns error when read fails", func(t *testing.T) {
		provider := mocks.NewFileProvider(t)
		provider.EXPECT().
			Read(mock.Anything, "missing_system_v1.txt").
			Return(nil, errors.New("file not found"))

		manager := New(provider, 1)
		got, err := manager.System(ctx, "missing", nil)

		assert.ErrorContains(t, err, "failed to read prompt missing_system_v1.txt")
		assert.Empty(t, got)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := New(mocks.NewFileProvider(t), 1).System(ctx, "", nil)
		assert.Error(t, err)
	})
}

func TestPromptManager_Preload(t *testing.T) {
	provider := mocks.NewFileProvider(t)
	provider.EXPECT().Read(mock.Anything, "ok_system_v1.txt").Return([]byte("ok"), nil)
	provider.EXPECT().Read(mock.Anything, "gone_system_v1.txt").Return(nil, errors.New("not found"))
	provider.EXPECT().Read(mock.Anything, "lost_system_v1.txt").Return(nil, errors.New("not found"))

	err := New(provider, 1).Preload(context.Background(), "ok", "gone", "lost")

	require.Error(t, err)
	assert.ErrorContains(t, err, "gone_system_v1.txt")
	assert.ErrorContains(t, err, "lost_system_v1.txt")
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		text string
		vars map[string]string
		want string
	}{
		{name: "no vars", text: "{a}", want: "{a}"},
		{name: "repeated key", text: "{a}-{a}", vars: map[string]string{"a": "x"}, want: "x-x"},
		{name: "braces in values are not re-expanded", text: "{a}{b}", vars: map[string]string{"a": "{b}", "b": "y"}, want: "{b}y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.text, tt.vars))
		})
	}
}
