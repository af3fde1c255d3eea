package hostfuncs

import (
	"context"
	"maps"

	"github.com/reglet-dev/reglet-extensions/extension"
)

type storageTag struct{}

// Storage is a key/value capability scoped to one execution context.
type Storage = extension.Value[storageTag, map[string]string]

// NewStorage creates a Storage extension holding a copy of initial.
func NewStorage(initial map[string]string) *Storage {
	data := make(map[string]string, len(initial))
	maps.Copy(data, initial)
	return extension.Wrap[storageTag](data)
}

// StorageGetRequest reads a key.
type StorageGetRequest struct {
	Key string `json:"key" validate:"required"`
}

// StorageGetResponse carries the value of a key.
type StorageGetResponse struct {
	Error *ErrorResponse `json:"error,omitempty"`
	Value string         `json:"value,omitempty"`
	Found bool           `json:"found"`
}

// StorageSetRequest writes a key.
type StorageSetRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value"`
}

// StorageDeleteRequest removes a key.
type StorageDeleteRequest struct {
	Key string `json:"key" validate:"required"`
}

// StorageWriteResponse acknowledges a write or delete.
type StorageWriteResponse struct {
	Error   *ErrorResponse `json:"error,omitempty"`
	Existed bool           `json:"existed"`
}

// PerformStorageGet reads from the Storage extension of the caller.
func PerformStorageGet(ctx context.Context, req StorageGetRequest) StorageGetResponse {
	storage, errResp := storageFrom(ctx)
	if errResp != nil {
		return StorageGetResponse{Error: errResp}
	}
	v, ok := storage.Inner[req.Key]
	return StorageGetResponse{Value: v, Found: ok}
}

// PerformStorageSet writes to the Storage extension of the caller.
func PerformStorageSet(ctx context.Context, req StorageSetRequest) StorageWriteResponse {
	storage, errResp := storageFrom(ctx)
	if errResp != nil {
		return StorageWriteResponse{Error: errResp}
	}
	data := storage.Deref()
	if *data == nil {
		*data = make(map[string]string)
	}
	_, existed := (*data)[req.Key]
	(*data)[req.Key] = req.Value
	return StorageWriteResponse{Existed: existed}
}

// PerformStorageDelete removes a key from the Storage extension of the caller.
func PerformStorageDelete(ctx context.Context, req StorageDeleteRequest) StorageWriteResponse {
	storage, errResp := storageFrom(ctx)
	if errResp != nil {
		return StorageWriteResponse{Error: errResp}
	}
	_, existed := storage.Inner[req.Key]
	delete(storage.Inner, req.Key)
	return StorageWriteResponse{Existed: existed}
}

func storageFrom(ctx context.Context) (*Storage, *ErrorResponse) {
	storage, err := extension.Require[*Storage](HostContextFrom(ctx, ""))
	if err != nil {
		resp := ErrorResponseFrom(err)
		return nil, &resp
	}
	return storage, nil
}
