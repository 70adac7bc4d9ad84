package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/database/tags"
)

// TagsController serves the tag suggestion endpoint used by the add and
// edit forms.
type TagsController struct {
	tags *tags.Repository
}

func NewTagsController(repo *tags.Repository) *TagsController {
	return &TagsController{tags: repo}
}

// TagSuggest returns tag names matching a partial query.
func (ctrl *TagsController) TagSuggest(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}

	matches, err := ctrl.tags.Search(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	suggestions := make([]string, 0, len(matches))
	for _, tag := range matches {
		suggestions = append(suggestions, tag.Name)
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
