// Package authz provides authorization collaborator implementations.
//
// The core only consults roles for the privileged system-message broadcast;
// token issuance and authentication live outside this service.
package authz
