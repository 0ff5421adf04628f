// Package graph implements the remote drive client against the
// Microsoft Graph drive API: folder listing with @odata.nextLink
// pagination and raw content download, authenticated with client
// credentials.
package graph
