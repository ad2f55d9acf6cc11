// Package ai defines the provider-agnostic completion contract shared by all
// vendor adapters: the [Provider] and [StreamProvider] interfaces, the
// [CompletionRequest]/[CompletionResponse] payloads, the [CompletionStream]
// fragment iterator, and the [ProviderError] failure taxonomy.
//
// Nothing outside an adapter package may branch on vendor identity; callers
// select an adapter once and then speak only this package's types.
package ai
