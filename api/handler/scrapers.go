package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/scraper"
)

// Scrapers returns a handler for GET /api/v1/scrapers: the registered
// scrapers in registration order, with their columns and fetch mode.
func Scrapers(reg *scraper.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		specs := reg.List()
		infos := make([]models.ScraperInfo, 0, len(specs))
		for _, s := range specs {
			infos = append(infos, models.ScraperInfo{
				Name:    s.Name,
				Columns: s.Columns,
				Mode:    string(s.Mode),
			})
		}
		c.JSON(http.StatusOK, models.ScrapersResponse{
			Scrapers: infos,
			Total:    len(infos),
		})
	}
}
