package feed

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"stockfeed/internal/model"
)

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

const sampleFeed = "ID du produit;Nom;Nom de la categorie par défaut;Prix de vente HT;Quantite;URL de l'image par défaut;Description sans HTML;Fabriquant;Couleur;Tailles;Reference\n" +
	"10;Guêpière Rosa;Guêpière, Corset & Serre-Taille;34,90;5;https://img/10.jpg;Guêpière en satin;Axami;Rose;S;AX-10-R-S\n" +
	"11;Escarpins Vernis;Chaussures;49,00;2;https://img/11.jpg;Escarpins;Pleaser;Noir;38;PL-11-38\n" +
	"10;Guêpière Rosa;Guêpière, Corset & Serre-Taille;34,90;3;https://img/10.jpg;Guêpière en satin;Axami;Rose;M;AX-10-R-M\n" +
	"12;Body Nina;Body;;;https://img/12.jpg;Body;Obsessive;Noir\n"

func TestExtractFiltersAndProjects(t *testing.T) {
	p := NewProjector(nil, nil)

	products, stats, err := Extract(context.Background(), bytes.NewReader(latin1(t, sampleFeed)), charmap.ISO8859_1, p, nil)
	require.NoError(t, err)
	require.Equal(t, Stats{RowsRead: 4, RowsKept: 3, RowsMalformed: 1}, stats)
	require.Len(t, products, 3)

	require.Equal(t, model.ProductVariant{
		ProductID:   "10",
		Name:        "Guêpière Rosa",
		Category:    "Guêpière, Corset & Serre-Taille",
		Price:       34.9,
		Stock:       5,
		ImageURL:    "https://img/10.jpg",
		Description: "Guêpière en satin",
		Brand:       "Axami",
		Color:       "Rose",
		Size:        "S",
		Reference:   "AX-10-R-S",
	}, products[0])
	require.Equal(t, "M", products[1].Size)

	body := products[2]
	require.Equal(t, "Body Nina", body.Name)
	require.Zero(t, body.Price)
	require.Zero(t, body.Stock)
	require.Empty(t, body.Size)
	require.Empty(t, body.Reference)
}

func TestExtractStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Extract(ctx, bytes.NewReader(latin1(t, sampleFeed)), charmap.ISO8859_1, NewProjector(nil, nil), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products", "stocks.json")
	in := []model.ProductVariant{
		{ProductID: "1", Name: "Bas", Category: "Bas", Price: 9.9, Stock: 3, Color: "Noir", Size: "2", Reference: "B-1"},
	}

	require.NoError(t, WriteSnapshot(path, in))
	out, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestWriteSnapshotEmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stocks.json")
	require.NoError(t, WriteSnapshot(path, nil))

	out, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestReadSnapshotMissingFile(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
