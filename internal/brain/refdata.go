package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Operator describes one expression-language operator the platform
// supports.
type Operator struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Definition  string `json:"definition"`
	Description string `json:"description"`
}

// DataField describes one simulatable data field.
type DataField struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Dataset     struct {
		ID string `json:"id"`
	} `json:"dataset"`
}

// DataSet describes one dataset whose fields can be simulated.
type DataSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FieldCount  int    `json:"fieldCount"`
}

// DataSetQuery narrows a dataset listing to one simulation context.
type DataSetQuery struct {
	InstrumentType string
	Region         string
	Universe       string
	Delay          int
}

// DataFieldQuery narrows a data-field listing to one dataset and
// simulation context.
type DataFieldQuery struct {
	DatasetID      string
	InstrumentType string
	Region         string
	Universe       string
	Delay          int
}

const dataFieldPageSize = 50

// Operators lists all operators available to the account.
func (c *Client) Operators(ctx context.Context) ([]Operator, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/operators", nil)
	if err != nil {
		return nil, fmt.Errorf("create operators request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch operators: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("operators status %d: %s", resp.StatusCode, string(body))
	}

	var operators []Operator
	if err := json.NewDecoder(resp.Body).Decode(&operators); err != nil {
		return nil, fmt.Errorf("decode operators: %w", err)
	}
	return operators, nil
}

// DataSets lists every dataset available in the given simulation
// context, following the platform's offset pagination.
func (c *Client) DataSets(ctx context.Context, q DataSetQuery) ([]DataSet, error) {
	var sets []DataSet

	for offset := 0; ; offset += dataFieldPageSize {
		params := url.Values{}
		params.Set("instrumentType", q.InstrumentType)
		params.Set("region", q.Region)
		params.Set("universe", q.Universe)
		params.Set("delay", strconv.Itoa(q.Delay))
		params.Set("limit", strconv.Itoa(dataFieldPageSize))
		params.Set("offset", strconv.Itoa(offset))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data-sets?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("create data-sets request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch data-sets: %w", err)
		}

		var page struct {
			Count   int       `json:"count"`
			Results []DataSet `json:"results"`
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("data-sets status %d: %s", resp.StatusCode, string(body))
		}
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("decode data-sets: %w", err)
		}
		resp.Body.Close()

		sets = append(sets, page.Results...)
		if len(page.Results) == 0 || len(sets) >= page.Count {
			return sets, nil
		}
	}
}

// DataFields lists every data field matching the query, following the
// platform's offset pagination until the reported count is reached.
func (c *Client) DataFields(ctx context.Context, q DataFieldQuery) ([]DataField, error) {
	var fields []DataField

	for offset := 0; ; offset += dataFieldPageSize {
		page, total, err := c.dataFieldPage(ctx, q, offset)
		if err != nil {
			return nil, err
		}
		fields = append(fields, page...)
		if len(page) == 0 || len(fields) >= total {
			return fields, nil
		}
	}
}

func (c *Client) dataFieldPage(ctx context.Context, q DataFieldQuery, offset int) ([]DataField, int, error) {
	params := url.Values{}
	params.Set("dataset.id", q.DatasetID)
	params.Set("instrumentType", q.InstrumentType)
	params.Set("region", q.Region)
	params.Set("universe", q.Universe)
	params.Set("delay", strconv.Itoa(q.Delay))
	params.Set("limit", strconv.Itoa(dataFieldPageSize))
	params.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data-fields?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create data-fields request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch data-fields: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("data-fields status %d: %s", resp.StatusCode, string(body))
	}

	var page struct {
		Count   int         `json:"count"`
		Results []DataField `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, 0, fmt.Errorf("decode data-fields: %w", err)
	}
	return page.Results, page.Count, nil
}
