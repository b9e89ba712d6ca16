package state

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"reflect"

	binary "github.com/gagliardetto/binary"
)

const DiscriminatorSize = 8

var (
	PoolDiscriminator     = Discriminator("Pool")
	PositionDiscriminator = Discriminator("Position")
)

// Discriminator returns the 8 byte account tag sha256("account:<name>")[:8].
func Discriminator(name string) [DiscriminatorSize]byte {
	hash := sha256.Sum256([]byte("account:" + name))
	var out [DiscriminatorSize]byte
	copy(out[:], hash[:DiscriminatorSize])
	return out
}

func EncodePool(pool *Pool) ([]byte, error) {
	return encode(PoolDiscriminator, pool)
}

func DecodePool(data []byte) (*Pool, error) {
	pool := new(Pool)
	if err := decode(PoolDiscriminator, data, pool); err != nil {
		return nil, fmt.Errorf("decode pool: %w", err)
	}
	return pool, nil
}

func EncodePosition(position *Position) ([]byte, error) {
	return encode(PositionDiscriminator, position)
}

func DecodePosition(data []byte) (*Position, error) {
	position := new(Position)
	if err := decode(PositionDiscriminator, data, position); err != nil {
		return nil, fmt.Errorf("decode position: %w", err)
	}
	return position, nil
}

func encode(disc [DiscriminatorSize]byte, v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := binary.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(disc [DiscriminatorSize]byte, data []byte, v any) error {
	if len(data) < DiscriminatorSize {
		return fmt.Errorf("record too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:DiscriminatorSize], disc[:]) {
		return fmt.Errorf("discriminator mismatch: got %x, want %x", data[:DiscriminatorSize], disc[:])
	}
	return binary.NewBorshDecoder(data[DiscriminatorSize:]).Decode(v)
}

// FieldOffset returns the byte offset of field name inside the encoded
// record x, discriminator included.
func FieldOffset(x any, name string) uint64 {
	t := reflect.TypeOf(x)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	fields := make([]reflect.StructField, 0)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == name {
			break
		}
		fields = append(fields, f)
	}

	value := reflect.New(reflect.StructOf(fields)).Elem()
	buf := new(bytes.Buffer)
	if err := binary.NewBorshEncoder(buf).Encode(value.Interface()); err != nil {
		return 0
	}
	return uint64(buf.Len()) + DiscriminatorSize
}
