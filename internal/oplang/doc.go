// Operation string grammar:
//
//	op (';' op)*
//	op := function_name '(' arg (',' arg)* ')'
//	    | variable_ref comparator literal
//	    | variable_ref ('in'|'!' 'in') '{' literal (',' literal)* '}'
//	    | variable_ref ('=&'|'=|') integer_literal
//	variable_ref := name | name '{' dim_kind (',' dim_kind)* '}'
//	literal := number ( '[' unit ']' )? | string
//
// AST node kinds: name, qualified_name, unit, string,
// number, quantity, list, eq/ne/lt/le/gt/ge, bit_mask_any, bit_mask_none,
// in, not_in, function_call, argument_list, dimension_list,
// operation_list.
package oplang
