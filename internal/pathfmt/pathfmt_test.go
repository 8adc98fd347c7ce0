package pathfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/shellfolio/internal/model"
)

func TestFormatDirectory(t *testing.T) {
	assert.Equal(t, `C:\`, FormatDirectory(model.Root))
	assert.Equal(t, `C:\projects\alpha`, FormatDirectory(`projects\alpha`))
}

func TestFormatCommand(t *testing.T) {
	cases := []struct {
		name string
		prev model.Entry
		cur  model.Entry
		want string
	}{
		{"back to root", `projects\alpha`, model.Root, `cd \`},
		{"root to root", model.Root, model.Root, `cd \`},
		{"one level up", `projects\alpha`, "projects", "cd .."},
		{"two levels up", `A\B\C`, "A", `cd ..\..`},
		{"descend", "projects", `projects\alpha\beta`, `cd alpha\beta`},
		{"descend from root", model.Root, "projects", "cd projects"},
		{"unrelated", "projects", "contact", `cd \contact`},
		{"shared text but not segment", "project", `projects\alpha`, `cd \projects\alpha`},
		{"same entry", "contact", "contact", `cd \contact`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatCommand(tc.prev, tc.cur))
		})
	}
}

func TestFormatCommandDeterministic(t *testing.T) {
	entries := []model.Entry{model.Root, "a", `a\b`, `a\b\c`, "b", `b\a`}
	for _, prev := range entries {
		for _, cur := range entries {
			first := FormatCommand(prev, cur)
			for i := 0; i < 3; i++ {
				assert.Equal(t, first, FormatCommand(prev, cur))
			}
		}
	}
}

func TestConsoleLine(t *testing.T) {
	assert.Equal(t, `C:\>cd projects`, ConsoleLine(model.Root, "projects"))
	assert.Equal(t, `C:\projects\alpha>cd ..`, ConsoleLine(`projects\alpha`, "projects"))
}
