// Package filedex provides an embedded Go client for the filedex file
// store: files go in, fixed-dimension embeddings plus the original bytes
// come out, and similarity queries rank the stored records.
//
// The client wires the storage driver, the embedding pipeline, and the
// query engine directly, without the HTTP layer:
//
//	client, _ := filedex.New(ctx,
//	    filedex.WithRedis("localhost:6379", ""),
//	    filedex.WithEmbedder(myEmbedder),
//	    filedex.WithVectorDimensions(1536),
//	)
//	defer client.Close()
//
//	rec, _ := client.Upload(ctx, filedex.File{
//	    Name: "notes.txt",
//	    Data: []byte("hello world"),
//	})
//
//	results, _ := client.Query(ctx, filedex.QueryOptions{
//	    Text: "greeting",
//	    TopK: 5,
//	})
//
// Metadata filters use a Mongo-like operator syntax ($eq, $ne, $gt, $gte,
// $lt, $lte, $in, $nin, $and, $or):
//
//	results, _ := client.Query(ctx, filedex.QueryOptions{
//	    Text:   "quarterly report",
//	    Filter: map[string]any{"department": "finance", "year": map[string]any{"$gte": 2024}},
//	})
package filedex
