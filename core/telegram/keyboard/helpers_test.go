package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meteobot/core/chat"
)

func TestInline(t *testing.T) {
	kb := chat.Keyboard{
		{{Text: "A", Action: "a"}, {Text: "B", Action: "b"}},
		{},
		{{Text: "C", Action: "c"}},
	}
	markup := Inline(kb)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "b", markup.InlineKeyboard[0][1].Data)
	assert.Empty(t, markup.InlineKeyboard[0][1].Unique)
	assert.Equal(t, "C", markup.InlineKeyboard[1][0].Text)
}

func TestInlineEmpty(t *testing.T) {
	assert.Nil(t, Inline(nil))
	assert.Nil(t, Inline(chat.Keyboard{{}}))
}
