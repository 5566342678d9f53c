package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdCrawlNow      CommandType = "crawl_now"
	CmdCrawlCategory CommandType = "crawl_category"
	CmdInvestment    CommandType = "investment"
	CmdPause         CommandType = "pause"
	CmdResume        CommandType = "resume"
)

type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}

type CommandParams struct {
	Category string `json:"category,omitempty"`
	StartURL string `json:"start_url,omitempty"`
}
