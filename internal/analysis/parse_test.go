package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantErr   bool
	}{
		{
			name:      "plain JSON",
			text:      `{"identifiedBooks":[{"title":"Duna","author":"Frank Herbert"}],"noMatchesFound":false}`,
			wantTitle: "Duna",
		},
		{
			name:      "fenced",
			text:      "```json\n{\"identifiedBooks\":[{\"title\":\"Drácula\"}]}\n```",
			wantTitle: "Drácula",
		},
		{
			name:      "chatter around the object",
			text:      "Claro! Aqui está:\n{\"identifiedBooks\":[{\"title\":\"1984\"}]}\nEspero ter ajudado.",
			wantTitle: "1984",
		},
		{name: "no object", text: "Não consegui ver a estante.", wantErr: true},
		{name: "broken object", text: `{"identifiedBooks": [`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseResponse(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, resp.IdentifiedBooks, 1)
			assert.Equal(t, tt.wantTitle, resp.IdentifiedBooks[0].Title)
		})
	}
}

func TestComparePrompt(t *testing.T) {
	p := comparePrompt(bookOf("Duna", "Frank Herbert"), bookOf("Fundação", ""))
	assert.Contains(t, p, `"Duna" (Frank Herbert)`)
	assert.Contains(t, p, `"Fundação" (autor desconhecido)`)
}

func TestCuratorPromptFilter(t *testing.T) {
	assert.Contains(t, curatorPrompt([]string{"Todos"}), "Não aplique NENHUM filtro")

	p := curatorPrompt([]string{"Fantasia", "Terror"})
	assert.Contains(t, p, "Fantasia, Terror")
	assert.NotContains(t, p, "NENHUM filtro")
}
