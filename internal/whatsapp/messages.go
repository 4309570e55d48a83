package whatsapp

import (
	"fmt"
	"strings"

	"imoveisdf/server/internal/models"
)

// The template phrasing below is stable business copy. Changing it changes
// what clients receive, so treat edits as product decisions.

// RenderPropertyMatch builds the message for one matched lead, including the
// reasons the property qualified and an opt-out link.
func RenderPropertyMatch(lead *models.Lead, property *models.Property, reasons []string, siteURL string) string {
	var b strings.Builder

	b.WriteString("*NOVA OPORTUNIDADE PARA VOCÊ*\n\n")
	fmt.Fprintf(&b, "Olá *%s*!\n\n", lead.Name)
	b.WriteString("Encontramos um imóvel que pode te interessar:\n\n")
	fmt.Fprintf(&b, "*%s*\n", property.Title)
	fmt.Fprintf(&b, "*Preço:* R$ %s\n", models.FormatPrice(property.Price))
	fmt.Fprintf(&b, "*Local:* %s, %s\n", property.City, property.State)
	fmt.Fprintf(&b, "*Categoria:* %s\n", property.Category)
	if property.Bedrooms != nil {
		fmt.Fprintf(&b, "*Quartos:* %d\n", *property.Bedrooms)
	}
	if property.Bathrooms != nil {
		fmt.Fprintf(&b, "*Banheiros:* %d\n", *property.Bathrooms)
	}
	if property.Area != nil {
		fmt.Fprintf(&b, "*Área:* %dm²\n", *property.Area)
	}

	b.WriteString("\n*Por que este imóvel é perfeito para você:*\n")
	for _, reason := range reasons {
		fmt.Fprintf(&b, "✅ %s\n", reason)
	}

	fmt.Fprintf(&b, "\n*Ver detalhes:* %s/imovel/%s\n\n", siteURL, property.Slug)
	b.WriteString("*Quer agendar uma visita?*\nResponda esta mensagem ou ligue para nós!\n\n")
	fmt.Fprintf(&b, "---\nPara não receber mais sugestões: %s/opt-out/%s\n\n", siteURL, lead.ID)
	b.WriteString("Imóveis DF")

	return b.String()
}

// RenderSuggestions builds the digest sent to a lost lead with up to five
// alternative listings.
func RenderSuggestions(lead *models.Lead, properties []*models.Property, siteURL string) string {
	var b strings.Builder

	b.WriteString("*OUTRAS OPÇÕES PARA VOCÊ*\n\n")
	fmt.Fprintf(&b, "Olá *%s*!\n\n", lead.Name)
	if lead.PropertyTitle != nil {
		fmt.Fprintf(&b, "Vimos que você demonstrou interesse no imóvel \"%s\".\n\n", *lead.PropertyTitle)
	}
	b.WriteString("Temos outras opções que podem te interessar na mesma faixa de preço e localização:\n\n")

	for i, prop := range properties {
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, prop.Title)
		fmt.Fprintf(&b, "   Preço: R$ %s\n", models.FormatPrice(prop.Price))
		fmt.Fprintf(&b, "   Local: %s, %s\n", prop.City, prop.State)
		fmt.Fprintf(&b, "   Ver: %s/imovel/%s", siteURL, prop.Slug)
		if i < len(properties)-1 {
			b.WriteString("\n\n")
		}
	}

	b.WriteString("\n\n*Gostaria de agendar uma visita?*\nResponda esta mensagem ou ligue para nós!\n\n")
	fmt.Fprintf(&b, "---\nPara não receber mais sugestões: %s/opt-out/%s\n\n", siteURL, lead.ID)
	b.WriteString("Imóveis DF")

	return b.String()
}

// RenderPriceDrop builds the alert sent to a watcher when a listing's price
// is reduced.
func RenderPriceDrop(name string, property *models.Property, oldPrice, newPrice int, siteURL string) string {
	var b strings.Builder

	b.WriteString("🏡 *PREÇO REDUZIDO!*\n\n")
	fmt.Fprintf(&b, "Olá %s!\n\n", name)
	b.WriteString("O imóvel que você tem interesse teve uma redução de preço:\n\n")
	fmt.Fprintf(&b, "📍 *%s*\n\n", property.Title)
	fmt.Fprintf(&b, "💸 Preço anterior: ~R$ %s~\n", models.FormatPrice(oldPrice))
	fmt.Fprintf(&b, "✅ *Novo preço: R$ %s*\n", models.FormatPrice(newPrice))
	fmt.Fprintf(&b, "💰 *Economia: R$ %s*\n\n", models.FormatPrice(oldPrice-newPrice))
	b.WriteString("Não perca essa oportunidade! Entre em contato conosco para mais informações.\n\n")
	fmt.Fprintf(&b, "Ver detalhes: %s/imovel/%s", siteURL, property.Slug)

	return b.String()
}
