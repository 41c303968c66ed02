package errors

import "fmt"

func ValidationFailedErr(err error) error {
	return E(Invalid, "validation failed", err)
}

// ConnectErr returns a formatted error for a failed broker connection
func ConnectErr(msg string, err error) error {
	return E(Connection, msg, err)
}

// PublishErr returns a formatted error for a batch the broker did not accept
func PublishErr(topic string, size int, err error) error {
	return E(Publish, fmt.Sprintf("cannot publish batch of %d records to %s", size, topic), err)
}
