// Package cache provides a bounded LRU map.
//
// It backs page caching in the paged data source: recently loaded pages
// are kept so that scrolling back over them does not hit the backend
// again, and the whole cache can be dropped when the data changes.
package cache
