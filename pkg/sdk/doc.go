// Package minicompass is a Go client for the minicompass REST API, a thin
// JSON façade over a document database.
//
//	client, _ := minicompass.New("http://localhost:3000",
//	    minicompass.WithDatabase("cegep_bd1"),
//	)
//	names, _ := client.ListCollections(ctx)
//	students := client.Documents("students")
//	id, _ := students.Insert(ctx, minicompass.Document{"name": "Alice", "age": 20})
//	adults, _ := students.List(ctx, minicompass.Where("age", "20").Limit(10))
//	_ = students.Update(ctx, id, minicompass.Document{"address.city": "Laval"})
//
// Every error returned for a non-2xx response is an *APIError and matches one
// of the sentinel errors with errors.Is.
package minicompass
