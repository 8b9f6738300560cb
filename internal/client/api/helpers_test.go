package api

import "github.com/atinyakov/mycraft/internal/models"

func filterFor(trade models.Trade, page int) models.ServiceFilter {
	return models.ServiceFilter{Trade: trade, Page: page}
}
