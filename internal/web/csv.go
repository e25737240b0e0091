package web

import (
	"encoding/csv"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

const (
	// unheardUserArtistLimit bounds how many of a user's top artists seed
	// the recommendation query.
	unheardUserArtistLimit = 15

	// unheardEdgeLimit bounds how many graph edges are considered per user.
	unheardEdgeLimit = 50
)

func writeCSV(w http.ResponseWriter, filename string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		log.Printf("writing csv %s: %v", filename, err)
	}
}

// UserArtistsCSV exports every user's ranked listening history
// (GET /users/artists).
func (h *Handlers) UserArtistsCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.database.UserArtists().ListRows(r.Context())
	if err != nil {
		log.Printf("loading user artist rows: %v", err)
		writeMessage(w, http.StatusInternalServerError, "error loading user artists")
		return
	}
	writeCSV(w, "artist-data.csv", userArtistRecords(rows))
}

// userArtistRecords formats listening history rows for CSV export.
func userArtistRecords(rows []db.UserArtistRow) [][]string {
	records := [][]string{{
		"Spotify Name", "Spotify Email", "Ranking", "Artist", "Popularity", "Followers", "Genres",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.UserName,
			row.UserEmail,
			strconv.Itoa(row.Rank),
			row.ArtistName,
			strconv.Itoa(row.Popularity),
			strconv.Itoa(row.FollowerCount),
			strings.Join(row.Genres, " "),
		})
	}
	return records
}

// UnheardArtistsCSV exports, per user, related artists that do not appear
// in that user's own top list (GET /users/artists/unheard).
func (h *Handlers) UnheardArtistsCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.database.Users().List(ctx)
	if err != nil {
		log.Printf("loading users: %v", err)
		writeMessage(w, http.StatusInternalServerError, "error loading users")
		return
	}

	records := [][]string{{
		"Spotify Name", "Spotify Email", "Ranking", "Unheard Artist", "Popularity", "Followers", "Genres",
	}}
	for i := range users {
		artists, err := h.unheardArtistsForUser(r, users[i].ID)
		if err != nil {
			log.Printf("loading unheard artists for %s: %v", users[i].Email, err)
			writeMessage(w, http.StatusInternalServerError, "error loading unheard artists")
			return
		}
		for j, artist := range artists {
			records = append(records, []string{
				users[i].DisplayName,
				users[i].Email,
				strconv.Itoa(j + 1),
				artist.Name,
				strconv.Itoa(artist.Popularity),
				strconv.Itoa(artist.FollowerCount),
				strings.Join(artist.Genres, " "),
			})
		}
	}
	writeCSV(w, "unheard-data.csv", records)
}

// unheardArtistsForUser finds related artists of the user's top artists
// that the user does not already listen to.
func (h *Handlers) unheardArtistsForUser(r *http.Request, userID uuid.UUID) ([]db.Artist, error) {
	ctx := r.Context()

	userArtists, err := h.database.UserArtists().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(userArtists) > unheardUserArtistLimit {
		userArtists = userArtists[:unheardUserArtistLimit]
	}

	artistIDs := make([]uuid.UUID, len(userArtists))
	for i, ua := range userArtists {
		artistIDs[i] = ua.ArtistID
	}

	edges, err := h.database.RelatedArtists().ListUnheard(ctx, artistIDs, unheardEdgeLimit)
	if err != nil {
		return nil, err
	}

	relatedIDs := make([]uuid.UUID, len(edges))
	for i, edge := range edges {
		relatedIDs[i] = edge.RelatedArtistID
	}
	return h.database.Artists().ListByIDs(ctx, relatedIDs)
}

// GenresCSV exports per-user genre aggregates across each user's top
// artists (GET /users/genres).
func (h *Handlers) GenresCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.database.UserArtists().GenreRows(r.Context())
	if err != nil {
		log.Printf("loading genre rows: %v", err)
		writeMessage(w, http.StatusInternalServerError, "error loading genres")
		return
	}
	writeCSV(w, "genre-data.csv", genreRecords(rows))
}

// genreRecords formats genre aggregate rows for CSV export.
func genreRecords(rows []db.GenreCountRow) [][]string {
	records := [][]string{{
		"Spotify Name", "Spotify Email", "Genre", "Artist Count",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.UserName,
			row.UserEmail,
			row.Genre,
			strconv.Itoa(row.ArtistCount),
		})
	}
	return records
}
