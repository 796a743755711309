package datastore

import (
	"fmt"

	"github.com/prelev/prelev/schema"
)

// PrintStoreStatus prints series store status information.
func PrintStoreStatus(status schema.DataStoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Series: %d\n", status.TotalSeries)
	fmt.Printf("Total Documents: %d\n", status.TotalDocuments)
}
