package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayakoji/noteshare/store"
)

func TestScoreRelated(t *testing.T) {
	now := time.Now().Unix()

	current := &store.Note{
		ID:        1,
		Content:   "運動量保存の法則 #物理\n運動量は保存される",
		CreatedTs: now,
	}

	t.Run("Stronger overlap ranks first", func(t *testing.T) {
		duplicate := &store.Note{
			ID:        2,
			Content:   "運動量保存の法則 #物理\n運動量は保存される",
			CreatedTs: now,
		}
		partial := &store.Note{
			ID:        3,
			Content:   "エネルギー保存の法則 #物理",
			CreatedTs: now,
		}

		scored := ScoreRelated(current, []*store.Note{partial, duplicate}, 5)
		require.Len(t, scored, 2)
		assert.Equal(t, int32(2), scored[0].Note.ID)
		assert.Equal(t, int32(3), scored[1].Note.ID)
		assert.Greater(t, scored[0].Score, scored[1].Score)
	})

	t.Run("Unrelated old note is dropped", func(t *testing.T) {
		unrelated := &store.Note{
			ID:        4,
			Content:   "カレーの作り方 #料理\nじゃがいもを切る",
			CreatedTs: now - 30*24*3600,
		}

		scored := ScoreRelated(current, []*store.Note{unrelated}, 5)
		assert.Empty(t, scored)
	})

	t.Run("Shared tags are reported", func(t *testing.T) {
		tagged := &store.Note{
			ID:        5,
			Content:   "慣性の法則 #物理\n外力がなければ運動は保存される",
			CreatedTs: now,
		}

		scored := ScoreRelated(current, []*store.Note{tagged}, 5)
		require.Len(t, scored, 1)
		assert.Equal(t, []string{"物理"}, scored[0].SharedTags)
	})

	t.Run("The source note never relates to itself", func(t *testing.T) {
		self := &store.Note{
			ID:        1,
			Content:   current.Content,
			CreatedTs: now,
		}

		scored := ScoreRelated(current, []*store.Note{self}, 5)
		assert.Empty(t, scored)
	})

	t.Run("Limit caps the result", func(t *testing.T) {
		candidates := []*store.Note{
			{ID: 6, Content: current.Content, CreatedTs: now},
			{ID: 7, Content: current.Content, CreatedTs: now},
			{ID: 8, Content: current.Content, CreatedTs: now},
		}

		scored := ScoreRelated(current, candidates, 2)
		assert.Len(t, scored, 2)
	})

	t.Run("No candidates", func(t *testing.T) {
		assert.Nil(t, ScoreRelated(current, nil, 5))
		assert.Nil(t, ScoreRelated(nil, []*store.Note{{ID: 9}}, 5))
	})
}
