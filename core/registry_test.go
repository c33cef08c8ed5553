package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	post := &ModelDef{Name: `Blog\Post`, Table: "posts", TranslatableFields: []string{"title"}}
	shopPost := &ModelDef{Name: `Shop\Post`, Table: "shop_posts"}
	page := &ModelDef{Name: "Page", Table: "pages", Searchable: true}
	blogPost := &ModelDef{Name: "BlogPost", Table: "blog_posts", TranslatableFields: []string{"title"}}

	r, err := NewRegistry(post, shopPost, page, blogPost)
	require.NoError(t, err)

	t.Run("by table", func(t *testing.T) {
		def, err := r.ByTable("pages")
		require.NoError(t, err)
		assert.Same(t, page, def)

		_, err = r.ByTable("nope")
		assert.ErrorIs(t, err, ErrUnknownModel)
	})

	t.Run("all in order", func(t *testing.T) {
		assert.Equal(t, []*ModelDef{post, shopPost, page, blogPost}, r.All())
	})

	t.Run("resolve", func(t *testing.T) {
		tests := []struct {
			name    string
			keep    func(*ModelDef) bool
			want    *ModelDef
			wantErr error
		}{
			{"Page", nil, page, nil},
			{`\Page`, nil, page, nil},
			{"BlogPost", nil, blogPost, nil},
			{`Blog\Post`, nil, post, nil},
			{"Post", nil, nil, ErrAmbiguousModel},
			{"Post", (*ModelDef).Translatable, post, nil},
			{"Page", (*ModelDef).Translatable, nil, ErrUnknownModel},
			{"age", nil, nil, ErrUnknownModel},
			{"", nil, nil, ErrUnknownModel},
		}
		for _, tt := range tests {
			def, err := r.Resolve(tt.name, tt.keep)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr, tt.name)
				continue
			}
			require.NoError(t, err, tt.name)
			assert.Same(t, tt.want, def, tt.name)
		}
	})

	t.Run("duplicates", func(t *testing.T) {
		err := r.Register(&ModelDef{Name: "Other", Table: "pages"})
		assert.ErrorIs(t, err, ErrDuplicateModel)

		err = r.Register(&ModelDef{Name: "Page", Table: "other_pages"})
		assert.ErrorIs(t, err, ErrDuplicateModel)

		err = r.Register(&ModelDef{Name: "Broken"})
		assert.ErrorIs(t, err, ErrInvalidModelDef)
	})
}
