package web

import (
	"reflect"
	"testing"

	"github.com/blackboxrecordclub/artist-sync/internal/db"
)

func TestUserArtistRecords(t *testing.T) {
	rows := []db.UserArtistRow{
		{
			UserName:      "Alice",
			UserEmail:     "alice@example.com",
			Rank:          1,
			ArtistName:    "Alpha",
			Popularity:    80,
			FollowerCount: 120000,
			Genres:        []string{"indie", "rock"},
		},
		{
			UserName:      "Alice",
			UserEmail:     "alice@example.com",
			Rank:          2,
			ArtistName:    "Beta",
			Popularity:    0,
			FollowerCount: 0,
			Genres:        nil,
		},
	}

	got := userArtistRecords(rows)
	want := [][]string{
		{"Spotify Name", "Spotify Email", "Ranking", "Artist", "Popularity", "Followers", "Genres"},
		{"Alice", "alice@example.com", "1", "Alpha", "80", "120000", "indie rock"},
		{"Alice", "alice@example.com", "2", "Beta", "0", "0", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("userArtistRecords = %v, want %v", got, want)
	}
}

func TestUserArtistRecordsEmpty(t *testing.T) {
	got := userArtistRecords(nil)
	if len(got) != 1 {
		t.Fatalf("records = %d, want header only", len(got))
	}
}

func TestGenreRecords(t *testing.T) {
	rows := []db.GenreCountRow{
		{UserName: "Alice", UserEmail: "alice@example.com", Genre: "indie", ArtistCount: 12},
		{UserName: "Bob", UserEmail: "bob@example.com", Genre: "jazz", ArtistCount: 3},
	}

	got := genreRecords(rows)
	want := [][]string{
		{"Spotify Name", "Spotify Email", "Genre", "Artist Count"},
		{"Alice", "alice@example.com", "indie", "12"},
		{"Bob", "bob@example.com", "jazz", "3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("genreRecords = %v, want %v", got, want)
	}
}
