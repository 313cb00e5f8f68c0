package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"encoding/json"
	"unsafe"

	"github.com/simpledb/simpledb"
	"github.com/simpledb/simpledb/core"
	"github.com/simpledb/simpledb/db"
	"github.com/simpledb/simpledb/ps"
)

// Handle represents an open database instance
type Handle struct {
	instance *simpledb.Instance
}

// Global handle storage (simplified - in production use a map with mutex)
var handles = make(map[int]*Handle)
var nextHandle = 1

var bindingIdentity = ps.Identity{
	Name:  "SimpleDB Bindings",
	Email: "bindings@simpledb.local",
}

// Response mirrors the server protocol for consistency
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type QueryResponse struct {
	Columns         []string   `json:"columns"`
	Data            [][]string `json:"data"`
	RecordsRead     int        `json:"records_read"`
	ExecutionTimeMs float64    `json:"execution_time_ms"`
	ExecutionOps    int        `json:"execution_ops"`
}

type ExecResponse struct {
	Operation       string  `json:"operation"`
	Table           string  `json:"table"`
	RowsAffected    int     `json:"rows_affected"`
	RowIds          []int64 `json:"row_ids,omitempty"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	ExecutionOps    int     `json:"execution_ops"`
}

func register(instance *simpledb.Instance) C.int {
	handle := nextHandle
	nextHandle++
	handles[handle] = &Handle{instance: instance}
	return C.int(handle)
}

//export simpledb_open_memory
func simpledb_open_memory() C.int {
	store, err := ps.NewMemoryStore()
	if err != nil {
		return -1
	}

	instance, err := simpledb.Open(store, core.DefaultConfig())
	if err != nil {
		return -1
	}

	return register(instance)
}

//export simpledb_open_file
func simpledb_open_file(path *C.char) C.int {
	goPath := C.GoString(path)

	store, err := ps.NewFileStore(goPath)
	if err != nil {
		return -1
	}

	instance, err := simpledb.Open(store, core.DefaultConfig())
	if err != nil {
		return -1
	}

	return register(instance)
}

//export simpledb_save
func simpledb_save(handle C.int) *C.char {
	h, ok := handles[int(handle)]
	if !ok {
		return makeErrorResponse("Invalid handle")
	}

	txn, err := h.instance.Save(bindingIdentity)
	if err != nil {
		return makeErrorResponse(err.Error())
	}

	data, _ := json.Marshal(map[string]string{"snapshot": txn.Id})
	resp := Response{
		Success: true,
		Type:    "save",
		Result:  data,
	}
	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

//export simpledb_close
func simpledb_close(handle C.int) {
	delete(handles, int(handle))
}

//export simpledb_execute
func simpledb_execute(handle C.int, query *C.char) *C.char {
	h, ok := handles[int(handle)]
	if !ok {
		return makeErrorResponse("Invalid handle")
	}

	goQuery := C.GoString(query)
	result, err := h.instance.Execute(goQuery)

	if err != nil {
		return makeErrorResponse(err.Error())
	}

	var resp Response

	switch r := result.(type) {
	case db.QueryResult:
		qr := QueryResponse{
			Columns:         r.Columns,
			Data:            r.Data,
			RecordsRead:     r.RecordsRead,
			ExecutionTimeMs: r.ExecutionTimeSec * 1000,
			ExecutionOps:    r.ExecutionOps,
		}
		data, _ := json.Marshal(qr)
		resp = Response{
			Success: true,
			Type:    "query",
			Result:  data,
		}

	case db.ExecResult:
		er := ExecResponse{
			Operation:       r.Operation,
			Table:           r.Table,
			RowsAffected:    r.RowsAffected,
			RowIds:          r.RowIDs,
			ExecutionTimeMs: r.ExecutionTimeSec * 1000,
			ExecutionOps:    r.ExecutionOps,
		}
		data, _ := json.Marshal(er)
		resp = Response{
			Success: true,
			Type:    "exec",
			Result:  data,
		}

	default:
		resp = Response{
			Success: true,
			Type:    "unknown",
		}
	}

	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

//export simpledb_free
func simpledb_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func makeErrorResponse(msg string) *C.char {
	resp := Response{
		Success: false,
		Error:   msg,
	}
	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

func main() {}
