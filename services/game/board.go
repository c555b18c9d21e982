package game

import (
	game_constants "Magnate/constants/game"
)

// Tile is one static board position. The board is generated as 8 color
// groups of 3 consecutive tiles; prices and rents scale with the group.
type Tile struct {
	ID       int
	Name     string
	Group    int
	Price    int
	BaseRent int
}

var groupNames = [game_constants.GroupCount]string{
	"Harbor", "Old Town", "Market", "Theater",
	"Station", "Uptown", "Park", "Boulevard",
}

// Board is the static tile table, indexed by tile id.
var Board = buildBoard()

func buildBoard() [game_constants.BoardSize]Tile {
	var tiles [game_constants.BoardSize]Tile
	for i := 0; i < game_constants.BoardSize; i++ {
		group := i / game_constants.TilesPerGroup
		posInGroup := i % game_constants.TilesPerGroup
		price := 60 + group*40 + posInGroup*10
		tiles[i] = Tile{
			ID:       i,
			Name:     groupNames[group],
			Group:    group,
			Price:    price,
			BaseRent: price / 6,
		}
	}
	return tiles
}

// TileByID returns the static tile data for an id, or false when the id
// is off the board.
func TileByID(id int) (Tile, bool) {
	if id < 0 || id >= game_constants.BoardSize {
		return Tile{}, false
	}
	return Board[id], true
}

// GroupTiles returns the ids of every tile in a group.
func GroupTiles(group int) []int {
	ids := make([]int, 0, game_constants.TilesPerGroup)
	for _, t := range Board {
		if t.Group == group {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// HouseCost is the development cost for one house on a tile of a group.
func HouseCost(group int) int {
	return game_constants.HouseCostPerGroup * (group + 1)
}
