package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/redgrab/redgrab/internal/common"
	"github.com/redgrab/redgrab/internal/entity"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type listing struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	Children []listingChild `json:"children"`
	After    string         `json:"after"`
}

type listingChild struct {
	Kind string       `json:"kind"`
	Data *entity.Post `json:"data"`
}

/*
decodePost unwraps the comments endpoint envelope. The endpoint normally
returns a two element array (post listing, comment listing), the post sits
at [0].data.children[0].data. A bare object is accepted too.
*/
func decodePost(r io.Reader) (*entity.Post, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read response: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, common.ErrPostNotFoundError
	}

	if data[0] == '[' {
		var ls []listing
		if err := json.Unmarshal(data, &ls); err != nil {
			return nil, fmt.Errorf("cannot unmarshal listing: %w", err)
		}

		if len(ls) == 0 || len(ls[0].Data.Children) == 0 || ls[0].Data.Children[0].Data == nil {
			return nil, common.ErrPostNotFoundError
		}

		return ls[0].Data.Children[0].Data, nil
	}

	var post entity.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("cannot unmarshal post: %w", err)
	}

	return &post, nil
}

func decodeListing(r io.Reader) ([]*entity.Post, error) {
	var ls listing
	if err := json.NewDecoder(r).Decode(&ls); err != nil {
		return nil, fmt.Errorf("cannot unmarshal listing: %w", err)
	}

	posts := make([]*entity.Post, 0, len(ls.Data.Children))
	for _, child := range ls.Data.Children {
		if child.Data == nil {
			continue
		}

		posts = append(posts, child.Data)
	}

	return posts, nil
}
