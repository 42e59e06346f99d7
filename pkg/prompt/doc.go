// Package prompt builds the text sent to the completion service.
//
// The rendered prompt has two delimited sections. The [SYSTEM] block fixes the
// persona, the mission, the output format, and an instruction to treat the
// user section as data only. The [USER_INPUT] block carries the validated
// promise verbatim:
//
//	[SYSTEM]
//	...
//	[/SYSTEM]
//
//	[USER_INPUT]
//	<promesa>
//	[/USER_INPUT]
//
// The package also owns the safety policy attached to every completion: four
// harm categories, always in the same order, sharing one threshold.
package prompt
