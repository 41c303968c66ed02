package models

import (
	// Go Internal Packages
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is RFC 3339 with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Transaction struct {
	ID          string
	Timestamp   time.Time
	Account     string
	AccountName string
	Currency    string
	CardIssuer  string
	Amount      string
}

// TxValue is the wire form of a transaction, the id travels as the message key
type TxValue struct {
	Timestamp   string `json:"timestamp"`
	Account     string `json:"account"`
	AccountName string `json:"accountName"`
	Currency    string `json:"currency"`
	Card        string `json:"card"`
	Amount      string `json:"amount"`
}

func (t *Transaction) Transform() TxValue {
	return TxValue{
		Timestamp:   t.Timestamp.UTC().Format(TimestampLayout),
		Account:     t.Account,
		AccountName: t.AccountName,
		Currency:    t.Currency,
		Card:        t.CardIssuer,
		Amount:      t.Amount,
	}
}

// Key returns the quoted transaction id used as the message key
func (t *Transaction) Key() []byte {
	return []byte(strconv.Quote(t.ID))
}

// Encode serializes the transaction into a broker message
func (t *Transaction) Encode() (Message, error) {
	value, err := json.Marshal(t.Transform())
	if err != nil {
		return Message{}, err
	}
	return Message{Key: t.Key(), Value: value}, nil
}

// DecodeTransaction parses a message produced by Encode back into a transaction
func DecodeTransaction(msg Message) (Transaction, error) {
	var v TxValue
	if err := json.Unmarshal(msg.Value, &v); err != nil {
		return Transaction{}, err
	}

	ts, err := time.Parse(TimestampLayout, v.Timestamp)
	if err != nil {
		return Transaction{}, err
	}

	id, err := strconv.Unquote(string(msg.Key))
	if err != nil {
		id = strings.Trim(string(msg.Key), `"`)
	}

	return Transaction{
		ID:          id,
		Timestamp:   ts,
		Account:     v.Account,
		AccountName: v.AccountName,
		Currency:    v.Currency,
		CardIssuer:  v.Card,
		Amount:      v.Amount,
	}, nil
}
