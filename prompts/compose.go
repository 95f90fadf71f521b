package prompts

import (
	"fmt"
	"strings"

	"github.com/atlas-moltbot/vitrine-de-imagens/region"
)

// Brief is the guided generator form. A non-empty Prompt wins over the fields.
type Brief struct {
	Prompt    string   `json:"prompt,omitempty"`
	Product   string   `json:"product,omitempty"`
	Scenarios []string `json:"scenarios,omitempty"`
	Styles    []string `json:"styles,omitempty"`
	Lightings []string `json:"lightings,omitempty"`
}

// Compose builds the generation prompt for b. It returns "" when b is empty.
func Compose(b Brief) string {
	if p := strings.TrimSpace(b.Prompt); p != "" {
		return p
	}

	product := strings.TrimSpace(b.Product)
	scenarios := nonBlank(b.Scenarios)
	styles := nonBlank(b.Styles)
	lightings := nonBlank(b.Lightings)
	if product == "" && len(scenarios) == 0 && len(styles) == 0 && len(lightings) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Uma imagem ")
	if product != "" {
		fmt.Fprintf(&sb, "de %s ", product)
	}
	if len(scenarios) > 0 {
		lead := "retratando:"
		if product != "" {
			lead = "em um"
		}
		fmt.Fprintf(&sb, "%s %s. ", lead, strings.Join(scenarios, " combinada com "))
	}
	if len(styles) > 0 {
		fmt.Fprintf(&sb, "No estilo artístico de: %s. ", strings.Join(styles, ", "))
	}
	if len(lightings) > 0 {
		fmt.Fprintf(&sb, "Com iluminação: %s.", strings.Join(lightings, " mesclada com "))
	}
	return strings.TrimSpace(sb.String())
}

const preserveOutside = " Mantenha o restante da imagem 100% inalterado, modificando APENAS a área dentro das coordenadas fornecidas."

// TextEdit builds the prompt that replaces find with replace, or adds replace
// when find is empty. r limits the edit to a region and may be nil.
// It returns "" when there is no text to write.
func TextEdit(find, replace string, r *region.Region) string {
	if replace == "" {
		return ""
	}
	where := ""
	if r != nil {
		where = fmt.Sprintf(" na região delimitada pelas coordenadas [%s]", r)
	}
	if find != "" {
		return fmt.Sprintf("Substitua o texto escrito %q por %q%s. Mantenha o mesmo estilo de fonte, cor, perspectiva e fundo do texto original.%s",
			find, replace, where, preserveOutside)
	}
	return fmt.Sprintf("Adicione o texto %q%s. O texto deve parecer natural e integrar-se à cena.%s",
		replace, where, preserveOutside)
}

// Swap builds the prompt that replaces one detected element with another.
func Swap(element, replacement string) string {
	return fmt.Sprintf("Substitua o elemento '%s' por %s. Mantenha o restante da imagem inalterado.", element, replacement)
}

func nonBlank(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
