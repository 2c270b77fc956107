package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/campus-cinema/internal/app"
)

type CatalogHandler struct {
	app *app.App
}

func NewCatalogHandler(app *app.App) *CatalogHandler {
	return &CatalogHandler{
		app: app,
	}
}

func (h *CatalogHandler) HandleListMovies(ctx *gin.Context) {
	movies, err := h.app.MovieService.GetAllMovies(ctx.Request.Context())
	if err != nil {
		respondError(ctx, h.app.Logger, err, "")
		return
	}
	ctx.JSON(200, gin.H{"movies": movies})
}

func (h *CatalogHandler) HandleGetMovie(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	movie, err := h.app.MovieService.GetMovieByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Movie not found")
		return
	}
	ctx.JSON(200, movie)
}

// HandleListShowings lists the bookable showings of a movie, optionally
// starting at ?from=YYYY-MM-DD.
func (h *CatalogHandler) HandleListShowings(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	showings, err := h.app.ShowingService.GetShowingsForMovie(ctx.Request.Context(), id, ctx.Query("from"))
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Movie not found")
		return
	}
	ctx.JSON(200, gin.H{"showings": showings})
}

func (h *CatalogHandler) HandleGetShowing(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	showing, err := h.app.ShowingService.GetShowingByID(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, h.app.Logger, err, "Showing not found")
		return
	}
	ctx.JSON(200, showing)
}
