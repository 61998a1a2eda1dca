// Package validation содержит функции валидации входных данных.
package validation

import (
	"strings"

	"github.com/mmeshcher/fieldsales-system/internal/model"
)

// ValidateDraft проверяет заполненность обязательных полей заявки и возвращает
// список замечаний. Пустой список означает, что заявку можно сохранять.
func ValidateDraft(d model.OrderDraft) []string {
	var problems []string

	if strings.TrimSpace(d.Distributor) == "" {
		problems = append(problems, "distributor is required")
	}
	if strings.TrimSpace(d.ShopName) == "" {
		problems = append(problems, "shop name is required")
	}
	if len(ActiveLines(d.Lines)) == 0 {
		problems = append(problems, "at least one product with qty or soh is required")
	}
	if len(d.Photo) == 0 {
		problems = append(problems, "shop photo is required")
	}

	for _, line := range ActiveLines(d.Lines) {
		if !IsKnownSKU(line.SKU) {
			problems = append(problems, "unknown product: "+line.SKU)
		}
		if line.Quantity < 0 || line.StockOnHand < 0 {
			problems = append(problems, "qty and soh must not be negative: "+line.SKU)
		}
	}

	if d.MarginPercent < 0 || d.MarginPercent > 100 {
		problems = append(problems, "margin must be between 0 and 100")
	}
	if d.NumVisits < 1 {
		problems = append(problems, "number of visits must be at least 1")
	}

	return problems
}

// ActiveLines возвращает товарные позиции, в которых указан заказ или остаток.
// Только такие позиции попадают в хранилище.
func ActiveLines(lines []model.ProductLine) []model.ProductLine {
	var active []model.ProductLine
	for _, line := range lines {
		if line.Quantity > 0 || line.StockOnHand > 0 {
			active = append(active, line)
		}
	}
	return active
}

// IsKnownSKU проверяет принадлежность товара фиксированному ассортименту.
func IsKnownSKU(sku string) bool {
	for _, p := range model.Products {
		if p == sku {
			return true
		}
	}
	return false
}
