package txn

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "unrelated write error",
			err:  errors.New("community cascade failed: connection reset"),
			want: false,
		},
		{
			name: "standalone server code 20",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"},
			want: true,
		},
		{
			name: "illegal operation code 51",
			err:  mongo.CommandError{Code: 51, Message: "Illegal operation"},
			want: true,
		},
		{
			name: "operation not supported in transaction code 263",
			err:  mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"},
			want: true,
		},
		{
			name: "unrelated command error code",
			err:  mongo.CommandError{Code: 11000, Message: "duplicate key"},
			want: false,
		},
		{
			name: "wrapped command error",
			err:  fmt.Errorf("leave community: %w", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}),
			want: true,
		},
		{
			name: "transaction plus replica set wording",
			err:  errors.New("transaction failed because this is not a replica set member"),
			want: true,
		},
		{
			name: "session not supported wording",
			err:  errors.New("session operations are not supported on this server"),
			want: true,
		},
		{
			name: "transaction keyword alone",
			err:  errors.New("transaction aborted"),
			want: false,
		},
		{
			name: "transaction plus session wording",
			err:  errors.New("cannot start transaction in current session state"),
			want: true,
		},
		{
			name: "illegal operation wording",
			err:  errors.New("illegal operation during membership cascade"),
			want: true,
		},
		{
			name: "uppercase wording still matches",
			err:  errors.New("TRANSACTION failed on REPLICA SET"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
