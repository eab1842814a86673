package analysis

import (
	"fmt"
	"strings"

	"github.com/bibliotek-ia/bibliotek/internal/genres"
	"github.com/bibliotek-ia/bibliotek/internal/models"
)

func genreInstruction(selected []string) string {
	if genres.IsAll(selected) {
		return "O usuário selecionou 'Todos'. IMPORTANTE: Não aplique NENHUM filtro. " +
			"TODOS os livros que você conseguir identificar na foto devem ser incluídos."
	}
	return fmt.Sprintf("O usuário busca livros nestes gêneros: %s. "+
		"Examine os livros da foto e inclua em 'recommendations' APENAS aqueles que pertencem a esses gêneros. "+
		"Use no campo 'genre' exatamente um destes nomes.", strings.Join(selected, ", "))
}

// curatorPrompt asks the vision model for identified books and genre-filtered recommendations as JSON
func curatorPrompt(selected []string) string {
	return `Aja como um curador literário pessoal de elite. Sua tarefa é analisar a foto da estante enviada pelo usuário.

REGRAS OBRIGATÓRIAS:
1. IDENTIFICAÇÃO: Liste em 'identifiedBooks' todos os títulos e autores legíveis.
2. RECOMENDAÇÃO: A seção 'recommendations' deve conter EXCLUSIVAMENTE livros visíveis na foto.
3. FILTRO: ` + genreInstruction(selected) + `
4. DETALHAMENTO: Para cada recomendação, inclua descrição, gênero e um motivo ('recommendationReason').
5. ERRO: Se não identificar nada, defina 'noMatchesFound' como true.

IMPORTANTE: Responda APENAS com o JSON válido, sem markdown ou explicações.

Schema JSON esperado:
{
  "identifiedBooks": [{ "title": "string", "author": "string" }],
  "userProfileSummary": "string",
  "noMatchesFound": boolean,
  "recommendations": [{
    "title": "string",
    "author": "string",
    "description": "string",
    "genre": "string",
    "recommendationReason": "string"
  }]
}`
}

func comparePrompt(a, b models.Book) string {
	return fmt.Sprintf("Compare o livro %q (%s) com %q (%s). "+
		"Explique as conexões temáticas e por que quem gostou de um provavelmente apreciará o outro.",
		a.Title, authorOrUnknown(a.Author), b.Title, authorOrUnknown(b.Author))
}

func authorOrUnknown(author string) string {
	if strings.TrimSpace(author) == "" {
		return "autor desconhecido"
	}
	return author
}
